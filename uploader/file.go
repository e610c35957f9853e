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

package uploader

import (
	"context"
	"fmt"

	"github.com/arduino/go-paths-helper"
	"github.com/embedded-lab/slip-dfu-uploader/ports"
	"github.com/sirupsen/logrus"
)

// ImageConverter turns a linked executable into the raw image to upload.
type ImageConverter interface {
	Convert(ctx context.Context, elf *paths.Path) (*paths.Path, error)
}

// ReadImage returns the bytes to upload for file, converting it first
// when converter is not nil.
func ReadImage(ctx context.Context, file *paths.Path, converter ImageConverter) ([]byte, error) {
	if converter != nil {
		bin, err := converter.Convert(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read from file %s: %w", file, err)
		}
		file = bin
	}
	logrus.Debugf("Reading file %s", file)
	data, err := file.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("failed to read binary file to send to board: %w", err)
	}
	return data, nil
}

// UploadFile uploads file, converted by converter when not nil. A nil file
// performs a dry run that only looks for a port that can be opened.
func (u *Uploader) UploadFile(ctx context.Context, mode ports.Mode, file *paths.Path, converter ImageConverter) (string, error) {
	if file == nil {
		return u.Upload(mode, nil, true)
	}
	image, err := ReadImage(ctx, file, converter)
	if err != nil {
		return "", err
	}
	return u.Upload(mode, image, false)
}
