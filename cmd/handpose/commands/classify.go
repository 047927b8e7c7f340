package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/handpose/internal/app"
	"github.com/ayusman/handpose/internal/detector"
	"github.com/ayusman/handpose/internal/gesture"
)

func classifyCmd() *cobra.Command {
	var (
		builtinOnly bool
		threshold   float64
	)

	cmd := &cobra.Command{
		Use:   "classify FILE",
		Short: "Classify a recorded hand (JSON with 21 points, or - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hand, err := readHand(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			templates, err := gesture.Library()
			if err != nil {
				return err
			}
			if !builtinOnly {
				st, err := openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				if templates, err = app.LoadTemplates(st); err != nil {
					return err
				}
			}

			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Threshold
			}
			c := gesture.NewClassifier(templates, threshold)
			printMatches(cmd.OutOrStdout(), c, hand)
			return nil
		},
	}

	cmd.Flags().BoolVar(&builtinOnly, "builtin", false, "only use the built-in templates")
	cmd.Flags().Float64Var(&threshold, "threshold", gesture.DefaultThreshold, "acceptance threshold")
	return cmd
}

// readHand decodes one hand from path, or from stdin when path is "-".
// It accepts a hand object, an array of hands (the first is used) or a bare
// array of 21 points.
func readHand(path string, stdin io.Reader) (*detector.HandLandmarks, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read hand: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		var hand detector.HandLandmarks
		if err := json.Unmarshal(data, &hand); err != nil {
			return nil, fmt.Errorf("failed to parse hand: %w", err)
		}
		return &hand, nil
	}

	var elems []struct {
		Points json.RawMessage `json:"points"`
	}
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("failed to parse hand: %w", err)
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("no hands in %s", path)
	}

	if elems[0].Points != nil {
		var hands []detector.HandLandmarks
		if err := json.Unmarshal(data, &hands); err != nil {
			return nil, fmt.Errorf("failed to parse hands: %w", err)
		}
		return &hands[0], nil
	}

	var points []detector.Point3D
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("failed to parse points: %w", err)
	}
	hand, err := detector.NewHandLandmarks(points, "", 0)
	if err != nil {
		return nil, err
	}
	return &hand, nil
}

func printMatches(w io.Writer, c *gesture.Classifier, hand *detector.HandLandmarks) {
	for _, m := range c.Classify(hand) {
		mark := " "
		if m.Score > c.Threshold() {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %-16s %5.2f %s\n", mark, m.Name(), m.Score, m.Template.Emoji)
	}
	if best, ok := c.Best(hand); ok {
		fmt.Fprintf(w, "gesture: %s\n", best.Name())
	} else {
		fmt.Fprintf(w, "gesture: none\n")
	}
}
