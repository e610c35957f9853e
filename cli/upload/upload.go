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

package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/arduino/go-paths-helper"
	"github.com/embedded-lab/slip-dfu-uploader/cli/arguments"
	"github.com/embedded-lab/slip-dfu-uploader/cli/feedback"
	"github.com/embedded-lab/slip-dfu-uploader/cli/globals"
	"github.com/embedded-lab/slip-dfu-uploader/flasher"
	"github.com/embedded-lab/slip-dfu-uploader/ports"
	"github.com/embedded-lab/slip-dfu-uploader/programmers/objcopy"
	"github.com/embedded-lab/slip-dfu-uploader/protocol"
	"github.com/embedded-lab/slip-dfu-uploader/uploader"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	portFlags arguments.PortFlags
	dryRun    bool
	raw       bool
	retries   int
)

// NewCommand creates the `upload` command
func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "upload [FILE]",
		Short: "Uploads a firmware to the board bootloader.",
		Long: "Uploads a firmware to the DFU bootloader of the board through a serial port.\n" +
			"The file is converted from ELF to a raw binary with objcopy unless --raw is given.\n" +
			"Without a file only the port selection is performed.",
		Example: "" +
			"  " + os.Args[0] + " upload target/thumbv7em-none-eabihf/release/firmware\n" +
			"  " + os.Args[0] + " upload --raw -p /dev/ttyUSB0 firmware.bin\n" +
			"  " + os.Args[0] + " upload -s search-all firmware\n" +
			"  " + os.Args[0] + " upload -s interactive\n",
		Args: cobra.MaximumNArgs(1),
		Run:  runUpload,
	}
	portFlags.AddToCommand(command)
	command.Flags().BoolVar(&dryRun, "dry-run", false, "Only look for a port that can be opened, nothing is uploaded")
	command.Flags().BoolVar(&raw, "raw", false, "Upload the file as is, without converting it with objcopy")
	command.Flags().IntVar(&retries, "retries", 1, "Number of upload attempts")
	return command
}

func runUpload(cmd *cobra.Command, args []string) {
	if retries < 1 {
		feedback.Fatal("Number of retries should be at least 1", feedback.ErrBadArgument)
		return
	}

	config, err := globals.LoadConfig(configPath())
	if err != nil {
		feedback.Fatal(err.Error(), configExitCode(err))
		return
	}
	mode, err := portFlags.Mode(config)
	if err != nil {
		feedback.Fatal(err.Error(), feedback.ErrBadArgument)
		return
	}

	var file *paths.Path
	if len(args) == 1 && !dryRun {
		file = paths.New(args[0])
		if !file.Exist() {
			feedback.Fatal(fmt.Sprintf("firmware file not found in %s", file), feedback.ErrGeneric)
			return
		}
	}
	var converter uploader.ImageConverter
	if !raw {
		converter = objcopy.New(config.Objcopy)
	}

	retry := 0
	for {
		retry++
		logrus.Infof("Uploading firmware (try %d of %d)", retry, retries)

		res, err := upload(cmd.Context(), mode, file, converter)
		if err == nil {
			feedback.PrintResult(res)
			logrus.Info("Operation completed: success! :-)")
			return
		}
		logrus.Error(err)

		if retry >= retries || !retryable(err) {
			feedback.Fatal(err.Error(), exitCode(err))
			return
		}

		logrus.Info("Waiting 1 second before retrying...")
		fmt.Fprintln(feedback.Err(), "Waiting 1 second before retrying...")
		time.Sleep(time.Second)
	}
}

func configPath() *paths.Path {
	if globals.ConfigFile == "" {
		return nil
	}
	return paths.New(globals.ConfigFile)
}

func configExitCode(err error) feedback.ExitCode {
	if errors.Is(err, fs.ErrNotExist) {
		return feedback.ErrNoConfigFile
	}
	return feedback.ErrBadConfig
}

// newUploader returns an uploader set up for the selected output format.
// In JSON mode its output is collected in the returned buffers.
func newUploader() (*uploader.Uploader, *bytes.Buffer, *bytes.Buffer) {
	flasherOut := new(bytes.Buffer)
	flasherErr := new(bytes.Buffer)
	u := &uploader.Uploader{
		// the menu must not end up in the JSON result on stdout
		Choose: &ports.PromptChooser{In: os.Stdin, Out: feedback.Err()},
		Out:    flasherOut,
		Err:    flasherErr,
	}
	if feedback.GetFormat() == feedback.Text {
		u.Out = feedback.Out()
		u.Warn = feedback.Warning
		u.Progress = newProgressPrinter(u.Out)
	}
	return u, flasherOut, flasherErr
}

func upload(ctx context.Context, mode ports.Mode, file *paths.Path, converter uploader.ImageConverter) (*flasher.FlashResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	u, flasherOut, flasherErr := newUploader()
	address, err := u.UploadFile(ctx, mode, file, converter)
	if err != nil {
		return nil, err
	}

	res := &flasher.FlashResult{Port: address, DryRun: file == nil}
	if feedback.GetFormat() == feedback.JSON {
		res.Flasher = &flasher.ExecOutput{
			Stdout: flasherOut.String(),
			Stderr: flasherErr.String(),
		}
	}
	return res, nil
}

// newProgressPrinter returns a progress callback drawing a bar on out.
// A new bar is started each time a port restarts the data transfer.
func newProgressPrinter(out io.Writer) func(flasher.Progress) {
	var bar *progressbar.ProgressBar
	return func(p flasher.Progress) {
		if bar == nil || p.Chunk == 1 {
			bar = progressbar.NewOptions(p.Total,
				progressbar.OptionSetWriter(out),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Uploading"),
				progressbar.OptionShowCount(),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
			)
		}
		bar.Set(p.Chunk)
	}
}

// Errors coming from the selection of the port or from the input file are
// not solved by trying again.
func retryable(err error) bool {
	var validation *protocol.ValidationError
	switch {
	case errors.Is(err, ports.ErrNotFound),
		errors.Is(err, ports.ErrDryRunSearchAll),
		errors.As(err, &validation):
		return false
	}
	return true
}

func exitCode(err error) feedback.ExitCode {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return feedback.ErrPortNotFound
	case errors.Is(err, ports.ErrDryRunSearchAll):
		return feedback.ErrBadArgument
	}
	return feedback.ErrGeneric
}
