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

package objcopy

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/arduino/arduino-cli/executils"
	"github.com/arduino/go-paths-helper"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultTool is the objcopy shipped with cargo-binutils
const DefaultTool = "rust-objcopy"

// Objcopy converts linked executables to raw binary images.
type Objcopy struct {
	tool string
}

// New returns a converter running tool, or DefaultTool if empty.
func New(tool string) *Objcopy {
	if tool == "" {
		tool = DefaultTool
	}
	return &Objcopy{tool: tool}
}

// Convert writes the binary image of elf next to it, with the .bin
// extension, and returns its path. Files with the .bin extension are
// returned as they are.
func (o *Objcopy) Convert(ctx context.Context, elf *paths.Path) (*paths.Path, error) {
	if !elf.Exist() {
		return nil, pkgerrors.Errorf("file %s not found", elf)
	}
	if strings.EqualFold(elf.Ext(), ".bin") {
		logrus.Infof("%s is already a binary image", elf)
		return elf, nil
	}
	target := elf.Parent().Join(strings.TrimSuffix(elf.Base(), elf.Ext()) + ".bin")

	logrus.Infof("Converting %s to %s", elf, target)
	proc, err := executils.NewProcess(nil, o.tool, "-O", "binary", elf.String(), target.String())
	if err != nil {
		return nil, pkgerrors.WithMessage(err, "running "+o.tool)
	}
	_, stderr, err := proc.RunAndCaptureOutput(ctx)
	if errors.Is(err, exec.ErrNotFound) {
		return nil, pkgerrors.Errorf("%s not found, try installing cargo-binutils", o.tool)
	}
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			return nil, pkgerrors.WithMessage(err, "running "+o.tool+" failed")
		}
		return nil, pkgerrors.Errorf("running %s failed: %s", o.tool, msg)
	}
	logrus.Debugf("binary file created at %s", target)
	return target, nil
}
