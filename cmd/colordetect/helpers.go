package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"

	"github.com/pearlybrook/colordetect/pkg/classifier"
)

func parseIntArg(arg string, valueName string) (int, error) {
	value, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}

var labelColors = map[classifier.Label]*color.Color{
	classifier.Red:          color.New(color.Bold, color.FgRed),
	classifier.Green:        color.New(color.Bold, color.FgGreen),
	classifier.Blue:         color.New(color.Bold, color.FgBlue),
	classifier.White:        color.New(color.Bold, color.FgHiWhite),
	classifier.Black:        color.New(color.Bold, color.FgHiBlack),
	classifier.Undefined:    color.New(color.FgYellow),
	classifier.MappingError: color.New(color.FgYellow),
	classifier.SensorFault:  color.New(color.Bold, color.FgRed),
}

func labelText(l classifier.Label) string {
	if c, ok := labelColors[l]; ok {
		return c.Sprint(l)
	}
	return l.String()
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
