package telnetd

import (
	"bytes"
	"fmt"
	"time"

	oi "github.com/reiver/go-oi"
	telnet "github.com/reiver/go-telnet"
)

// promptCaller is the client end of a healthcheck probe: it waits for the
// server's prompt and then sends EOT to end the session cleanly.
type promptCaller struct {
	prompt []byte
	err    error
}

func (c *promptCaller) CallTELNET(_ telnet.Context, w telnet.Writer, r telnet.Reader) {
	var seen []byte
	var p [1]byte
	for {
		n, err := r.Read(p[:])
		if n > 0 {
			seen = append(seen, p[0])
			if bytes.HasSuffix(seen, c.prompt) {
				if _, werr := oi.LongWrite(w, []byte{0x04}); werr != nil {
					c.err = fmt.Errorf("healthcheck: send EOT: %w", werr)
				}
				return
			}
		}
		if err != nil {
			c.err = fmt.Errorf("healthcheck: connection ended before prompt %q: %w", c.prompt, err)
			return
		}
	}
}

// Healthcheck dials the telnet listener and verifies that it greets with
// prompt. With wait set it retries once per second until it succeeds, for
// use as a container health probe.
func Healthcheck(addr, prompt string, wait bool) error {
	if wait {
		for {
			if err := healthcheckOnce(addr, prompt); err != nil {
				time.Sleep(time.Second)
				continue
			}
			return nil
		}
	}
	return healthcheckOnce(addr, prompt)
}

func healthcheckOnce(addr, prompt string) error {
	caller := &promptCaller{prompt: []byte(prompt)}
	if err := telnet.DialToAndCall(addr, caller); err != nil {
		return fmt.Errorf("healthcheck: dial %s: %w", addr, err)
	}
	return caller.err
}
