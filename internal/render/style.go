package render

import (
	"image/color"

	"golang.org/x/image/colornames"

	"github.com/ayusman/handpose/internal/detector"
)

// JointStyle is the marker drawn at one landmark.
type JointStyle struct {
	Color  color.Color
	Radius float64
}

// Style is the static per-index style table used by the renderer.
type Style struct {
	Bone      color.Color
	BoneWidth float64
	Joints    [detector.NumLandmarks]JointStyle
}

// DefaultStyle returns the stock skeleton style: plum bones, a large yellow
// wrist, coloured knuckles at each finger base and small gold markers elsewhere.
func DefaultStyle() Style {
	s := Style{
		Bone:      colornames.Plum,
		BoneWidth: 4,
	}

	small := JointStyle{Color: colornames.Gold, Radius: 6}
	for i := range s.Joints {
		s.Joints[i] = small
	}

	s.Joints[detector.Wrist] = JointStyle{Color: colornames.Yellow, Radius: 15}
	s.Joints[detector.ThumbMCP] = JointStyle{Color: colornames.Green, Radius: 10}
	s.Joints[detector.IndexMCP] = JointStyle{Color: colornames.Purple, Radius: 10}
	s.Joints[detector.MiddleMCP] = JointStyle{Color: colornames.Blue, Radius: 10}
	s.Joints[detector.RingMCP] = JointStyle{Color: colornames.Red, Radius: 10}
	s.Joints[detector.PinkyMCP] = JointStyle{Color: colornames.Orange, Radius: 10}
	return s
}
