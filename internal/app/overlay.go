package app

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

var (
	colorWhite = color.RGBA{R: 255, G: 255, B: 255}
	colorBlack = color.RGBA{}
	colorGrey  = color.RGBA{R: 96, G: 96, B: 96}
	colorGreen = color.RGBA{G: 255}
	colorRed   = color.RGBA{R: 255}
)

const (
	voiceDisabledText = "Voice commands disabled"
	capsText          = "CAPS ON"
	textBoxChars      = 80
	filled            = -1
)

var mouseHelp = []string{
	"Mouse Mode Controls:",
	"- Move index finger to move cursor",
	"- Pinch index & middle fingers for left click",
	"- Pinch thumb & index finger for right click",
	"- Say 'switch to keyboard' to change modes",
	"- Press ESC for main menu",
}

var keyboardHelp = []string{
	"Keyboard Controls:",
	"- Pinch over letter to type",
	"- 'SP': Space, 'CL': Backspace",
	"- 'APR': Toggle CAPS, 'CLR': Clear text",
	"- 'MIC': Voice dictation, 'CMD': Toggle voice commands",
	"- Say 'switch to mouse' to change modes",
}

// handConnections are the landmark pairs joined when drawing a hand.
var handConnections = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP}, {detector.Wrist, detector.PinkyMCP},
	{detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

func pt(p detector.Point2D) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

func drawHand(frame *gocv.Mat, set *detector.LandmarkSet) {
	if set == nil {
		return
	}
	for _, c := range handConnections {
		gocv.Line(frame, pt(set[c[0]]), pt(set[c[1]]), colorWhite, 2)
	}
	for _, p := range set {
		gocv.Circle(frame, pt(p), 4, colorRed, filled)
	}
}

func drawLines(frame *gocv.Mat, lines []string, top, step int, scale float64, thickness int) {
	y := top
	for _, line := range lines {
		gocv.PutText(frame, line, image.Pt(20, y), gocv.FontHersheyPlain, scale, colorWhite, thickness)
		y += step
	}
}

// drawVoiceStatus shows the dispatcher status in green while listening and
// a red notice otherwise.
func drawVoiceStatus(frame *gocv.Mat, at image.Point, listening bool, status string) {
	if listening {
		gocv.PutText(frame, "Voice: "+status, at, gocv.FontHersheyPlain, 1.5, colorGreen, 2)
		return
	}
	gocv.PutText(frame, voiceDisabledText, at, gocv.FontHersheyPlain, 1.5, colorRed, 2)
}

func drawMouseOverlay(frame *gocv.Mat, listening bool, status string) {
	drawLines(frame, mouseHelp, 100, 30, 1.5, 2)
	drawVoiceStatus(frame, image.Pt(20, 50), listening, status)
}

// keyboardView is everything the keyboard overlay shows for one frame.
type keyboardView struct {
	layout    []gesture.ButtonSpec
	frame     gesture.KeyFrame
	feedback  string
	listening bool
	status    string
	text      string
	textLen   int
	caps      bool
}

func drawKeys(frame *gocv.Mat, layout []gesture.ButtonSpec) {
	for _, b := range layout {
		gocv.Rectangle(frame, b.Rect(), colorGrey, filled)
		gocv.PutText(frame, b.Label, image.Pt(b.X+10, b.Y+60), gocv.FontHersheyPlain, 2, colorWhite, 2)
	}
}

func drawKeyboardOverlay(frame *gocv.Mat, v keyboardView) {
	if v.frame.Pinched {
		gocv.Circle(frame, pt(v.frame.Thumb), 15, colorGreen, filled)
		gocv.Circle(frame, pt(v.frame.Index), 15, colorGreen, filled)
	}
	if v.frame.Hover != gesture.NoKey && v.frame.Hover < len(v.layout) {
		b := v.layout[v.frame.Hover]
		gocv.Rectangle(frame, b.Rect().Inset(-5), colorWhite, filled)
		gocv.PutText(frame, b.Label, image.Pt(b.X+20, b.Y+65), gocv.FontHersheyPlain, 4, colorBlack, 4)
	}

	if v.feedback != "" {
		gocv.PutText(frame, v.feedback, image.Pt(450, 100), gocv.FontHersheySimplex, 1.0, colorRed, 2)
	}

	drawLines(frame, keyboardHelp, 100, 25, 1, 1)
	drawVoiceStatus(frame, image.Pt(800, 50), v.listening, v.status)

	height := 80
	if v.textLen >= 40 {
		height = 120
	}
	gocv.Rectangle(frame, image.Rect(20, 400, 1200, 400+height), colorWhite, filled)
	gocv.PutText(frame, v.text, image.Pt(30, 400+height-20), gocv.FontHersheyPlain, 3, colorBlack, 3)

	if v.caps {
		gocv.PutText(frame, capsText, image.Pt(1050, 50), gocv.FontHersheyPlain, 2, colorRed, 2)
	}
}
