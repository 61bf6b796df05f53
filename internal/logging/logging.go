// Package logging contains helpers to write leveled messages to a standard logger.
package logging

import "log"

const (
	infoPrefix  = "INFO: "
	warnPrefix  = "WARN: "
	errorPrefix = "ERROR: "
)

// PrintlnInfo prints the given values as an info message.
func PrintlnInfo(logger *log.Logger, v ...interface{}) {
	logger.Println(append([]interface{}{infoPrefix}, v...)...)
}

// PrintlnWarn prints the given values as a warning message.
func PrintlnWarn(logger *log.Logger, v ...interface{}) {
	logger.Println(append([]interface{}{warnPrefix}, v...)...)
}

// PrintlnError prints the given values as an error message.
func PrintlnError(logger *log.Logger, v ...interface{}) {
	logger.Println(append([]interface{}{errorPrefix}, v...)...)
}
