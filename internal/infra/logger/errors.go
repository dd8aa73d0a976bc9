package logger

import "github.com/cockroachdb/errors"

var errFileRequired = errors.New("log file path is required for file output")
