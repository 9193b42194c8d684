package channel

import "io"

// actionFunc is one step of a direction's state machine. It consumes
// bypass (data already produced by the previous step, or nil) and returns
// the next step plus any data that should be handed to it as its bypass.
// A nil next step ends the direction.
type actionFunc func(bypass []byte) (next actionFunc, out []byte)

// runActions drives action until it terminates (returns a nil next step),
// threading each step's output into the next step's input. This is the
// two-goroutine analogue of the trampoline driving each direction's
// action slot.
func runActions(initial actionFunc) {
	action := initial

	var bypass []byte

	for action != nil {
		action, bypass = action(bypass)
	}
}

// recordReadFinish distinguishes a clean peer close (io.EOF, or no error
// at all) from a genuine transport read failure, emitting finishEvent for
// the former and errEvent for the latter.
func (c *channelImpl) recordReadFinish(err error, finishEvent, errEvent EventType) {
	if err == nil || err == io.EOF {
		c.events.save(finishEvent, nil)

		return
	}

	c.events.save(errEvent, err)
}

// doBuildConnection is the forward direction's initial step: read from the
// frontend and run it through the middleware chain until a backend has
// been attached (typically by a middleware calling SetBackend once it has
// inspected enough of the handshake). Once connected, the chunk just
// processed is handed to doForward as its first bypass so it isn't lost.
func (c *channelImpl) doBuildConnection(_ []byte) (actionFunc, []byte) {
	data, err := c.frontend.Read(c.readMax)
	if len(data) == 0 {
		if c.isCancelled(err) {
			return nil, nil
		}

		c.recordReadFinish(err, EventFrontendReadFinished, EventFrontendReadError)

		return c.doCloseBackend, nil
	}

	out, mwErr := c.mw.Forward(c, data)
	if mwErr != nil {
		if c.isCancelled(mwErr) {
			return nil, nil
		}

		c.recordActionError(mwErr)

		return c.doCloseBackend, nil
	}

	if c.Connected() {
		return c.doForward, out
	}

	return c.doBuildConnection, nil
}

// doCloseBackend ends the forward direction: the backend (if any) is
// closed, and the connected signal is forced so a backward task parked in
// doWaitConnection is released even though no backend was ever attached.
func (c *channelImpl) doCloseBackend(_ []byte) (actionFunc, []byte) {
	if b := c.Backend(); !b.Closed() {
		c.events.save(EventBackendClose, nil)
		_ = b.Close()
	}

	c.markConnected()

	return nil, nil
}

// doForward is the forward direction's steady state: read from the
// frontend, run the chunk through the middleware chain, and write
// whatever survives to the backend.
func (c *channelImpl) doForward(bypass []byte) (actionFunc, []byte) {
	if len(bypass) > 0 {
		if err := c.Backend().FlushWrite(bypass); err != nil {
			c.events.save(EventBackendWriteError, err)

			return c.doCloseBackend, nil
		}

		return c.doForward, nil
	}

	data, err := c.frontend.Read(c.readMax)
	if len(data) == 0 {
		if c.isCancelled(err) {
			return nil, nil
		}

		c.recordReadFinish(err, EventFrontendReadFinished, EventFrontendReadError)

		return c.doCloseBackend, nil
	}

	out, mwErr := c.mw.Forward(c, data)
	if mwErr != nil {
		if c.isCancelled(mwErr) {
			return nil, nil
		}

		c.recordActionError(mwErr)

		return c.doCloseBackend, nil
	}

	if len(out) == 0 {
		return c.doForward, nil
	}

	if err := c.Backend().FlushWrite(out); err != nil {
		c.events.save(EventBackendWriteError, err)

		return c.doCloseBackend, nil
	}

	return c.doForward, nil
}

// doWaitConnection is the backward direction's initial step: park until a
// backend has been attached (or the channel is cancelled first).
func (c *channelImpl) doWaitConnection(_ []byte) (actionFunc, []byte) {
	if !c.Connected() {
		select {
		case <-c.connectedCh:
		case <-c.ctx.Done():
			return nil, nil
		}
	}

	return c.doBackward, nil
}

// doBackward is the backward direction's steady state: read from the
// backend, run the chunk through the middleware chain, and flush whatever
// survives to the frontend.
func (c *channelImpl) doBackward(_ []byte) (actionFunc, []byte) {
	b := c.Backend()
	if b.Closed() {
		return c.doCloseFrontend, nil
	}

	data, err := b.Read(c.readMax)
	if len(data) == 0 {
		if c.isCancelled(err) {
			return nil, nil
		}

		c.recordReadFinish(err, EventBackendReadFinished, EventBackendReadError)

		return c.doCloseFrontend, nil
	}

	out, mwErr := c.mw.Backward(c, data)
	if mwErr != nil {
		if c.isCancelled(mwErr) {
			return nil, nil
		}

		c.recordActionError(mwErr)

		return c.doCloseFrontend, nil
	}

	if len(out) == 0 {
		return c.doBackward, nil
	}

	if err := c.frontend.FlushWrite(out); err != nil {
		c.events.save(EventFrontendWriteError, err)

		return c.doCloseFrontend, nil
	}

	return c.doBackward, nil
}

// doCloseFrontend ends the backward direction by closing the frontend.
func (c *channelImpl) doCloseFrontend(_ []byte) (actionFunc, []byte) {
	if !c.frontend.Closed() {
		c.events.save(EventFrontendClose, nil)
		_ = c.frontend.Close()
	}

	return nil, nil
}
