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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Chooser asks the operator to pick one of the ports.
type Chooser interface {
	Choose(ports []*PortInfo) (string, error)
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(ports []*PortInfo) (string, error)

// Choose calls f(ports).
func (f ChooserFunc) Choose(ports []*PortInfo) (string, error) {
	return f(ports)
}

// PromptChooser shows a numbered list of ports on Out and reads the
// chosen index from In, asking again until the answer is valid.
type PromptChooser struct {
	In  io.Reader
	Out io.Writer
}

var warn = color.New(color.FgRed)

// Choose implements Chooser.
func (c *PromptChooser) Choose(ports []*PortInfo) (string, error) {
	if len(ports) == 0 {
		return "", ErrNotFound
	}
	scanner := bufio.NewScanner(c.In)
	for {
		fmt.Fprint(c.Out, "Please choose a Serial Device (by number):\n\n")
		for i, p := range ports {
			fmt.Fprintf(c.Out, "\t%d: %s", i, p.Name)
			if p.Product != "" {
				fmt.Fprintf(c.Out, ", %s", p.Product)
			}
			if p.IsUSB {
				fmt.Fprintf(c.Out, ", pid: %s, vid: %s", p.PID, p.VID)
			}
			fmt.Fprintln(c.Out)
		}
		fmt.Fprint(c.Out, "\n >>> ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		index, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		switch {
		case err != nil:
			warn.Fprintln(c.Out, "Please enter a valid number")
		case index < 0 || index >= len(ports):
			warn.Fprintln(c.Out, "Index out of range")
		default:
			return ports[index].Name, nil
		}
	}
}
