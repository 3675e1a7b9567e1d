package panel

import (
	"bufio"
	"context"
	"io"
)

// ReadKeys drives the panel from a line-oriented key stream, one command per
// character: w/s push up/down, a/d push left/right, space or 'm' toggles the
// mode switch. Other characters are ignored. It returns when r is exhausted
// or ctx is done.
func ReadKeys(ctx context.Context, r io.Reader, p *Panel) error {
	br := bufio.NewReader(r)
	for {
		if ctx.Err() != nil {
			return nil
		}
		c, err := br.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch c {
		case 'w', 'W':
			p.Press(Up)
		case 's', 'S':
			p.Press(Down)
		case 'a', 'A':
			p.Press(Left)
		case 'd', 'D':
			p.Press(Right)
		case ' ', 'm', 'M':
			p.ToggleSwitch()
		}
	}
}
