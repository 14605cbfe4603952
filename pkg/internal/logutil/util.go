/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logutil formats controller log lines as "command=[..] action=[..] key=[value] msg=[..]".
package logutil

import (
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/spi/log"
)

// LogError logs a failed command action.
func LogError(logger log.Logger, command, action, errMsg string, data ...string) {
	logger.Errorf("%s errMsg=[%s]", prefix(command, action, data), errMsg)
}

// LogWarn logs a command action that went on despite a problem.
func LogWarn(logger log.Logger, command, action, msg string, data ...string) {
	logger.Warnf("%s msg=[%s]", prefix(command, action, data), msg)
}

// LogInfo logs a command action.
func LogInfo(logger log.Logger, command, action, msg string, data ...string) {
	logger.Infof("%s msg=[%s]", prefix(command, action, data), msg)
}

// LogDebug logs command action details.
func LogDebug(logger log.Logger, command, action, msg string, data ...string) {
	logger.Debugf("%s msg=[%s]", prefix(command, action, data), msg)
}

// CreateKeyValueString returns key=[val].
func CreateKeyValueString(key, val string) string {
	return fmt.Sprintf("%s=[%s]", key, val)
}

func prefix(command, action string, data []string) string {
	p := fmt.Sprintf("command=[%s] action=[%s]", command, action)

	if len(data) == 0 {
		return p
	}

	return p + " " + strings.Join(data, " ")
}
