//go:build !cgo

package main

import (
	"errors"

	"periph.io/x/devices/v3/ili9341/sim"
)

func runWindow(_ *sim.Panel, _ int) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1), or use -headless")
}
