/*
	slip-dfu-uploader
	Copyright (c) 2023 Arduino LLC.  All right reserved.

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package ports

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// USB ids of the FTDI FT230X bridge found on the lab boards
const (
	DefaultVID = "0403"
	DefaultPID = "6015"
)

var (
	// ErrNotFound is returned when no port matches the selection
	ErrNotFound = errors.New("no serial port to choose from, make sure the usb is plugged in")
	// ErrDryRunSearchAll is returned when a dry run is requested in SearchAll mode
	ErrDryRunSearchAll = errors.New("can't use dry run in search-all mode")
)

// Mode selects the ports an upload is attempted on. It is one of
// AutoDetect, SearchFirst, SearchAll, Interactive or Named.
type Mode interface {
	fmt.Stringer
	plan(s *Selector) (*Plan, error)
}

// AutoDetect picks the port of the USB device with the given ids, asking
// the operator when more than one is connected.
type AutoDetect struct {
	VID string
	PID string
}

// SearchFirst tries every USB serial port and stops at the first failure
// or success.
type SearchFirst struct{}

// SearchAll tries every USB serial port until an upload succeeds.
type SearchAll struct{}

// Interactive lets the operator choose the port.
type Interactive struct{}

// Named uses the given port.
type Named struct {
	Address string
}

func (m AutoDetect) String() string  { return fmt.Sprintf("auto (vid %s, pid %s)", m.VID, m.PID) }
func (m SearchFirst) String() string { return "search-first" }
func (m SearchAll) String() string   { return "search-all" }
func (m Interactive) String() string { return "interactive" }
func (m Named) String() string       { return "port " + m.Address }

// Plan is the ordered list of ports to try and what to do when one fails.
type Plan struct {
	Candidates       []string
	StopOnFirstError bool
}

// Validate checks that mode can be used for the requested kind of upload.
func Validate(mode Mode, dryRun bool) error {
	if mode == nil {
		return errors.New("no port selection mode")
	}
	if _, ok := mode.(SearchAll); ok && dryRun {
		return ErrDryRunSearchAll
	}
	return nil
}

// Selector turns a Mode into a Plan using the available ports.
type Selector struct {
	Enumerate Enumerator
	Choose    Chooser
}

// Resolve computes the plan for mode.
func (s *Selector) Resolve(mode Mode) (*Plan, error) {
	if mode == nil {
		return nil, errors.New("no port selection mode")
	}
	plan, err := mode.plan(s)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("port selection %s: candidates %v, stop on first error %v", mode, plan.Candidates, plan.StopOnFirstError)
	return plan, nil
}

func (s *Selector) enumerate() ([]*PortInfo, error) {
	if s.Enumerate == nil {
		return SerialEnumerator()
	}
	return s.Enumerate()
}

func (s *Selector) choose(ports []*PortInfo) (string, error) {
	if len(ports) == 0 {
		return "", ErrNotFound
	}
	if s.Choose == nil {
		return "", errors.New("interactive port selection is not available")
	}
	return s.Choose.Choose(ports)
}

func (s *Selector) usbPortNames() ([]string, error) {
	ports, err := s.enumerate()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, p := range USBOnly(ports) {
		names = append(names, p.Name)
	}
	return names, nil
}

func (m AutoDetect) plan(s *Selector) (*Plan, error) {
	ports, err := s.enumerate()
	if err != nil {
		return nil, err
	}
	var matching []*PortInfo
	for _, p := range ports {
		if p.Matches(m.VID, m.PID) {
			matching = append(matching, p)
		}
	}
	switch len(matching) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &Plan{Candidates: []string{matching[0].Name}, StopOnFirstError: true}, nil
	}
	name, err := s.choose(matching)
	if err != nil {
		return nil, err
	}
	return &Plan{Candidates: []string{name}, StopOnFirstError: true}, nil
}

func (m SearchFirst) plan(s *Selector) (*Plan, error) {
	names, err := s.usbPortNames()
	if err != nil {
		return nil, err
	}
	return &Plan{Candidates: names, StopOnFirstError: true}, nil
}

func (m SearchAll) plan(s *Selector) (*Plan, error) {
	names, err := s.usbPortNames()
	if err != nil {
		return nil, err
	}
	return &Plan{Candidates: names, StopOnFirstError: false}, nil
}

func (m Interactive) plan(s *Selector) (*Plan, error) {
	ports, err := s.enumerate()
	if err != nil {
		return nil, err
	}
	name, err := s.choose(ports)
	if err != nil {
		return nil, err
	}
	return &Plan{Candidates: []string{name}, StopOnFirstError: true}, nil
}

func (m Named) plan(s *Selector) (*Plan, error) {
	if m.Address == "" {
		return nil, errors.New("missing port address")
	}
	return &Plan{Candidates: []string{m.Address}}, nil
}
