package escpos

// Chain is the fluent variant of Printer. Each call forwards to the
// matching Printer operation and returns the chain; the first failure
// sticks and turns every later call into a no-op, so a receipt can be
// composed as one expression and checked once at the end.
//
//	err := p.Chain().
//		Init().
//		Align("ct").
//		Style("BU").
//		Println("RECEIPT").
//		PartialCut().
//		Err()
type Chain struct {
	p   *Printer
	n   int
	err error
}

// Chain starts a fluent command sequence on the printer. The chain
// shares the printer's transport; interleaving direct Printer calls
// with an active chain is the caller's own risk.
func (p *Printer) Chain() *Chain {
	return &Chain{p: p}
}

func (c *Chain) do(op func() (int, error)) *Chain {
	if c.err != nil {
		return c
	}
	n, err := op()
	c.n += n
	c.err = err
	return c
}

// Err returns the first error hit by the chain, or nil.
func (c *Chain) Err() error {
	return c.err
}

// BytesWritten returns the bytes written by the successful portion of
// the chain.
func (c *Chain) BytesWritten() int {
	return c.n
}

func (c *Chain) Init() *Chain    { return c.do(c.p.Init) }
func (c *Chain) Enable() *Chain  { return c.do(c.p.Enable) }
func (c *Chain) Disable() *Chain { return c.do(c.p.Disable) }

func (c *Chain) Print(content string) *Chain {
	return c.do(func() (int, error) { return c.p.Print(content) })
}

func (c *Chain) Println(content string) *Chain {
	return c.do(func() (int, error) { return c.p.Println(content) })
}

func (c *Chain) Underline(mode string) *Chain {
	return c.do(func() (int, error) { return c.p.Underline(mode) })
}

func (c *Chain) HR(width int) *Chain {
	return c.do(func() (int, error) { return c.p.HR(width) })
}

func (c *Chain) CharSize(height byte) *Chain {
	return c.do(func() (int, error) { return c.p.CharSize(height) })
}

func (c *Chain) LineSpace(n int) *Chain {
	return c.do(func() (int, error) { return c.p.LineSpace(n) })
}

func (c *Chain) Feed(n int) *Chain {
	return c.do(func() (int, error) { return c.p.Feed(n) })
}

func (c *Chain) Control(ctl string) *Chain {
	return c.do(func() (int, error) { return c.p.Control(ctl) })
}

func (c *Chain) Align(alignment string) *Chain {
	return c.do(func() (int, error) { return c.p.Align(alignment) })
}

func (c *Chain) Font(family string) *Chain {
	return c.do(func() (int, error) { return c.p.Font(family) })
}

func (c *Chain) Style(kind string) *Chain {
	return c.do(func() (int, error) { return c.p.Style(kind) })
}

func (c *Chain) Size(width, height int) *Chain {
	return c.do(func() (int, error) { return c.p.Size(width, height) })
}

func (c *Chain) Cashdraw(pin int) *Chain {
	return c.do(func() (int, error) { return c.p.Cashdraw(pin) })
}

func (c *Chain) FullCut() *Chain    { return c.do(c.p.FullCut) }
func (c *Chain) PartialCut() *Chain { return c.do(c.p.PartialCut) }

func (c *Chain) Barcode(text string, spec BarcodeSpec) *Chain {
	return c.do(func() (int, error) { return c.p.Barcode(text, spec) })
}

func (c *Chain) Raster(img Bitmap, mode string) *Chain {
	return c.do(func() (int, error) { return c.p.Raster(img, mode) })
}

func (c *Chain) BitImage(img Bitmap, density string) *Chain {
	return c.do(func() (int, error) { return c.p.BitImage(img, density) })
}
