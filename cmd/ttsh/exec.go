package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/tecnoter/ttsh/internal/fetch"
	"github.com/tecnoter/ttsh/internal/logging"
	"github.com/tecnoter/ttsh/internal/shell"
	"github.com/tecnoter/ttsh/internal/state"
)

var (
	execState string
	execInput string
	execSave  string
)

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Dispatch one input against a serialized session state",
	Long: `Read a session state as JSON, process one line of input and print the
response (lines, state, handled) as JSON on stdout. Output a fetch produces
after the response is written to stderr, one line each. With --save the next
state is also written to a file, so calls can be chained:

  ttsh exec --input "_login guest" --save s.json
  ttsh exec --state s.json --input "cd posts" --save s.json`,
	Args: cobra.NoArgs,
	RunE: runExec,
}

func init() {
	execCmd.Flags().StringVar(&execState, "state", "", "State JSON file, or - for stdin; empty starts a fresh session")
	execCmd.Flags().StringVar(&execInput, "input", "", "The input line")
	execCmd.Flags().StringVar(&execSave, "save", "", "Write the resulting state JSON to this file")
}

func runExec(cmd *cobra.Command, args []string) error {
	raw, err := readState(execState, cmd.InOrStdin())
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := dispatchOnce(cmd.Context(), raw, execInput, &out, cmd.ErrOrStderr()); err != nil {
		return err
	}
	if execSave != "" {
		if err := saveState(execSave, out.Bytes()); err != nil {
			return err
		}
	}
	_, err = cmd.OutOrStdout().Write(out.Bytes())
	return err
}

func readState(path string, stdin io.Reader) ([]byte, error) {
	switch path {
	case "":
		return []byte("null"), nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read state from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", path, err)
	}
	return data, nil
}

// saveState writes the state carried by an encoded response to path.
func saveState(path string, response []byte) error {
	var resp struct {
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(response, &resp); err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	st, err := state.Decode(resp.State)
	if err != nil {
		return err
	}
	data, err := state.Encode(st)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save state to %s: %w", path, err)
	}
	return nil
}

// dispatchOnce writes the response to out, then any background output to
// errOut once every fetch has finished.
func dispatchOnce(ctx context.Context, rawState []byte, input string, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outbox := fetch.NewOutbox(0)
	fetcher := fetch.New(ctx, nil, outbox, logging.Std)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				for _, l := range outbox.Drain() {
					fmt.Fprintln(errOut, l.Text)
				}
				return
			case l := <-outbox.Lines():
				fmt.Fprintln(errOut, l.Text)
			}
		}
	}()
	defer wg.Wait()
	defer close(done)

	disp, err := shell.New(shell.Config{Fetcher: fetcher})
	if err != nil {
		return err
	}
	resp, err := disp.ProcessJSON(rawState, input)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, string(resp)); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	fetcher.Wait()
	return nil
}
