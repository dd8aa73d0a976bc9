package playback

import (
	"fmt"
	"time"
)

// CommandKind is the kind of engine command.
type CommandKind int

const (
	CmdLoad CommandKind = iota
	CmdSeek
	CmdPlay
	CmdPause
	CmdSetVolume
)

// String returns the string representation of the command kind.
func (k CommandKind) String() string {
	switch k {
	case CmdLoad:
		return "load"
	case CmdSeek:
		return "seek"
	case CmdPlay:
		return "play"
	case CmdPause:
		return "pause"
	case CmdSetVolume:
		return "set_volume"
	default:
		return "unknown"
	}
}

// Command is an engine instruction produced by a transition. Only the field
// matching Kind is meaningful.
type Command struct {
	Kind     CommandKind
	Source   string
	Position time.Duration
	Volume   float64
}

func (c Command) String() string {
	switch c.Kind {
	case CmdLoad:
		return fmt.Sprintf("load(%s)", c.Source)
	case CmdSeek:
		return fmt.Sprintf("seek(%v)", c.Position)
	case CmdSetVolume:
		return fmt.Sprintf("set_volume(%.2f)", c.Volume)
	default:
		return c.Kind.String()
	}
}

func load(source string) Command     { return Command{Kind: CmdLoad, Source: source} }
func seek(pos time.Duration) Command { return Command{Kind: CmdSeek, Position: pos} }
func play() Command                  { return Command{Kind: CmdPlay} }
func pause() Command                 { return Command{Kind: CmdPause} }
func setVolume(v float64) Command    { return Command{Kind: CmdSetVolume, Volume: v} }
