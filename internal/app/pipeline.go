package app

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/input"
	"github.com/ayusman/mudra/internal/mode"
)

// keyEscape is the highgui key code that returns to the menu.
const keyEscape = 27

// errExit ends Run without an error: the context was canceled or the user
// closed the window.
var errExit = errors.New("exit")

// Window titles per mode.
const (
	TitleMouse    = "Mouse Control"
	TitleKeyboard = "Keyboard Control"
)

type highGUIWindow struct {
	*gocv.Window
}

func openHighGUI(title string) Window {
	return highGUIWindow{gocv.NewWindow(title)}
}

func (w highGUIWindow) Show(frame *gocv.Mat) {
	w.IMShow(*frame)
}

func (w highGUIWindow) Closed() bool {
	return w.GetWindowProperty(gocv.WindowPropertyVisible) < 1
}

// Run opens the camera and runs the loop of the current mode until ctx is
// canceled, the window is closed or the camera fails. Mode changes are
// applied here and nowhere else.
func (a *App) Run(ctx context.Context) error {
	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.config.Camera.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close camera")
		}
	}()

	pacer := capture.NewPacer(a.config.Pacer, a.config.Camera)
	defer pacer.Close()

	if a.config.View != nil {
		a.config.View.SetMode(a.config.Modes.Current())
	}

	for {
		cur := a.config.Modes.Current()

		var next mode.Mode
		var err error
		if cur == mode.Menu {
			next, err = a.waitForMode(ctx)
		} else {
			next, err = a.runGestures(ctx, cur, pacer)
		}

		switch {
		case errors.Is(err, errExit):
			a.logger.Info().Str("mode", cur.String()).Msg("primary loop exiting")
			return nil
		case err != nil:
			return err
		}
		a.config.Modes.Transition(next)
	}
}

// waitForMode blocks in the menu until another mode is requested.
func (a *App) waitForMode(ctx context.Context) (mode.Mode, error) {
	for {
		select {
		case <-ctx.Done():
			return mode.Menu, errExit
		case req := <-a.config.Modes.Requests():
			if req.To != mode.Menu {
				a.logger.Debug().Str("to", req.To.String()).Str("source", req.Source).Msg("mode requested")
				return req.To, nil
			}
		}
	}
}

// runGestures runs one mode's frame loop and returns the mode to enter
// next. The window is torn down before it returns.
func (a *App) runGestures(ctx context.Context, m mode.Mode, pacer *capture.Pacer) (mode.Mode, error) {
	title := TitleMouse
	if m == mode.Keyboard {
		title = TitleKeyboard
	}
	win := a.config.OpenWindow(title)
	defer func() {
		if err := win.Close(); err != nil {
			a.logger.Debug().Err(err).Msg("failed to close window")
		}
	}()

	var in *gesture.Interpreter
	var frameSize gesture.Size

	for {
		if ctx.Err() != nil {
			return m, errExit
		}

		frame, err := a.config.Camera.ReadFrame()
		if err != nil {
			return m, fmt.Errorf("read frame: %w", err)
		}

		size := gesture.Size{W: frame.Cols(), H: frame.Rows()}
		if in == nil || size != frameSize {
			frameSize = size
			in = a.newInterpreter(size)
		}

		pacer.Observe(frame)

		hands, err := a.config.Detector.Detect(frame)
		if err != nil {
			a.logger.Warn().Err(err).Msg("hand detection failed")
			hands = nil
		}
		set := detector.First(hands, size.W, size.H)

		if m == mode.Mouse {
			a.mouseFrame(frame, in, set)
		} else {
			a.keyboardFrame(frame, in, set)
		}

		a.publish(frame, m, hands)
		win.Show(frame)
		key := win.WaitKey(1)
		frame.Close()

		if key == keyEscape {
			return mode.Menu, nil
		}
		if win.Closed() {
			return m, errExit
		}
		if req, ok := a.config.Modes.Poll(); ok && req.To != m {
			a.logger.Debug().Str("to", req.To.String()).Str("source", req.Source).Msg("mode requested")
			return req.To, nil
		}
	}
}

func (a *App) newInterpreter(frame gesture.Size) *gesture.Interpreter {
	w, h := a.config.Input.ScreenSize()
	return gesture.NewInterpreter(a.config.Gesture, frame, gesture.Size{W: w, H: h}, nil)
}

func (a *App) mouseFrame(frame *gocv.Mat, in *gesture.Interpreter, set *detector.LandmarkSet) {
	out := in.Mouse(set)
	if out.Hand {
		a.config.Input.MoveTo(int(out.Cursor.X), int(out.Cursor.Y))
	}
	if out.Left {
		a.config.Input.Click(input.Left)
	}
	if out.Right {
		a.config.Input.Click(input.Right)
	}

	drawHand(frame, set)
	d := a.config.Dispatcher
	drawMouseOverlay(frame, d.Listening(), d.Status())
}

func (a *App) keyboardFrame(frame *gocv.Mat, in *gesture.Interpreter, set *detector.LandmarkSet) {
	layout := in.Layout()
	drawKeys(frame, layout)

	out := in.Keyboard(set)
	drawHand(frame, set)
	if out.Pressed != gesture.NoKey {
		a.pressKey(layout[out.Pressed].Label)
	}

	for {
		text, ok := a.config.Dictation.Next()
		if !ok {
			break
		}
		a.text.AppendDictation(text, a.config.TypeDictation)
	}

	d := a.config.Dispatcher
	drawKeyboardOverlay(frame, keyboardView{
		layout:    layout,
		frame:     out,
		feedback:  a.config.Dictation.Feedback(),
		listening: d.Listening(),
		status:    d.Status(),
		text:      a.text.Tail(textBoxChars),
		textLen:   a.text.Len(),
		caps:      a.text.Caps(),
	})
}

// pressKey handles a virtual key that fired this frame.
func (a *App) pressKey(label string) {
	a.logger.Debug().Str("key", label).Msg("key pressed")

	switch label {
	case gesture.KeyMic:
		a.config.Dictation.Begin()
	case gesture.KeyCommands:
		a.SetVoice(!a.config.Dispatcher.Listening())
	default:
		a.text.Press(label)
	}
}

func (a *App) publish(frame *gocv.Mat, m mode.Mode, hands []detector.HandLandmarks) {
	if a.config.Frames != nil {
		if err := a.config.Frames.Publish(frame); err != nil {
			a.logger.Debug().Err(err).Msg("failed to publish preview")
		}
	}
	if a.config.Landmarks != nil {
		a.config.Landmarks.Publish(m.String(), hands)
	}
}
