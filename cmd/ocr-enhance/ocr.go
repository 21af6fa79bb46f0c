package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/ironsheep/ocr-enhance/internal/autoselect"
	"github.com/ironsheep/ocr-enhance/internal/config"
	"github.com/ironsheep/ocr-enhance/internal/enhance"
	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
	"github.com/ironsheep/ocr-enhance/internal/ocr"
	"github.com/ironsheep/ocr-enhance/internal/params"
	"github.com/ironsheep/ocr-enhance/internal/report"
	"github.com/ironsheep/ocr-enhance/internal/server"
)

type ocrReading struct {
	Label          string        `json:"label"`
	Text           string        `json:"text"`
	Words          int           `json:"words"`
	MeanConfidence float64       `json:"mean_confidence"`
	Accuracy       *ocr.Accuracy `json:"accuracy,omitempty"`
}

func (a *app) runOCR(_ context.Context, args []string) error {
	fs, apply := a.newFlagSet("ocr", "<input>")
	var (
		modeName, paramsFile, lang, expectedFile string
		asJSON                                   bool
	)
	fs.StringVar(&modeName, "mode", "auto", "enhancement before OCR: auto, manual or none")
	fs.StringVar(&paramsFile, "params-file", "", "parameter file for manual mode")
	fs.StringVar(&lang, "lang", "", "Tesseract language (default from "+config.EnvLanguage+" or "+config.DefaultLanguage+")")
	fs.StringVar(&expectedFile, "expected", "", "reference transcript; reports character and word error rates")
	fs.BoolVar(&asJSON, "json", false, "print the readings as JSON")
	pos, err := parseCommand(fs, apply, args, 1)
	if err != nil {
		return err
	}
	if lang == "" {
		lang = a.cfg.Language
	}

	modeName = strings.ToLower(modeName)
	switch modeName {
	case "auto", "none":
		if paramsFile != "" {
			return usagef("--params-file requires --mode manual")
		}
	case "manual":
	default:
		return usagef("unknown mode %q (want auto, manual or none)", modeName)
	}

	var expected *string
	if expectedFile != "" {
		data, err := os.ReadFile(expectedFile)
		if err != nil {
			return fmt.Errorf("failed to read expected text: %w", err)
		}
		s := string(data)
		expected = &s
	}

	img, err := imgutil.Load(pos[0])
	if err != nil {
		return err
	}

	readings := make([]ocrReading, 0, 2)
	orig, err := a.read(img, "original", lang, expected)
	if err != nil {
		return err
	}
	readings = append(readings, *orig)

	if modeName != "none" {
		p := params.Default()
		switch {
		case modeName == "auto":
			if p, err = autoselect.Select(img); err != nil {
				return err
			}
		case paramsFile != "":
			if p, err = params.Load(paramsFile); err != nil {
				return err
			}
		}
		enhanced, err := enhance.Enhance(img, p)
		if err != nil {
			return err
		}
		r, err := a.read(enhanced, report.Describe(p), lang, expected)
		if err != nil {
			return err
		}
		readings = append(readings, *r)
	}

	if asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(readings)
	}
	for _, r := range readings {
		fmt.Fprintf(a.stdout, "=== %s ===\n", r.Label)
		fmt.Fprintln(a.stdout, strings.TrimSpace(r.Text))
		fmt.Fprintf(a.stdout, "words: %d  mean confidence: %.2f\n", r.Words, r.MeanConfidence)
		if r.Accuracy != nil {
			fmt.Fprintf(a.stdout, "CER: %.3f  WER: %.3f\n", r.Accuracy.CharErrorRate, r.Accuracy.WordErrorRate)
		}
	}
	return nil
}

func (a *app) read(img image.Image, label, lang string, expected *string) (*ocrReading, error) {
	res, err := a.engine.ExtractText(img, lang)
	if err != nil {
		return nil, err
	}
	r := &ocrReading{
		Label:          label,
		Text:           res.FullText,
		Words:          len(res.Regions),
		MeanConfidence: res.MeanConfidence(),
	}
	if expected != nil {
		acc := ocr.Score(*expected, res.FullText)
		r.Accuracy = &acc
	}
	return r, nil
}

func (a *app) runServe(ctx context.Context, args []string) error {
	fs, apply := a.newFlagSet("serve", "")
	if _, err := parseCommand(fs, apply, args, 0); err != nil {
		return err
	}
	err := server.New(a.cfg, Version).Run(ctx, a.stdin, a.stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
