/*
Copyright 2018 Heptio Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package errlog is flightcore-sim's top-level error reporting helper: it
// sets the process-wide logrus level from the --log-level flag and
// renders a command's terminal error consistently, with or without a
// stack trace, before main exits non-zero.
package errlog

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DebugOutput controls whether LogError also prints the wrapped error's
// stack trace.
var DebugOutput = false

// SetLevel parses s as a logrus level name and applies it process-wide.
// "debug" and "trace" also enable DebugOutput.
func SetLevel(s string) error {
	switch s {
	case "panic":
		logrus.SetLevel(logrus.PanicLevel)
	case "fatal":
		logrus.SetLevel(logrus.FatalLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
		DebugOutput = true
	case "trace":
		logrus.SetLevel(logrus.TraceLevel)
		DebugOutput = true
	default:
		return fmt.Errorf("unknown log level %q", s)
	}
	return nil
}

// LogError logs err, including a stack trace in the "trace" field when
// DebugOutput is set (see github.com/pkg/errors' %+v formatting verb).
func LogError(err error) {
	if DebugOutput {
		logrus.WithField("trace", fmt.Sprintf("%+v", err)).Error(err)
	} else {
		logrus.Error(err.Error())
	}
}
