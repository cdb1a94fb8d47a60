// Command compose frames a local image into an aspect ratio without calling
// the image service. It is handy for checking pad and crop output by eye.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/dixieflatline76/Framer/asset"
	"github.com/dixieflatline76/Framer/pkg/frame"
	"github.com/dixieflatline76/Framer/util/log"
)

func main() {
	in := flag.String("in", "", "input image (png, jpeg, gif, webp, bmp)")
	out := flag.String("out", "", "output PNG path")
	ratioFlag := flag.String("ratio", "1:1", "target aspect ratio (1:1, 16:9, 9:16, 4:3, 3:4)")
	fitFlag := flag.String("fit", "pad", "fit mode (pad or crop)")
	faces := flag.String("facefinder", "", "pigo cascade for crop mode (default: embedded facefinder)")
	noFaces := flag.Bool("nofaces", false, "disable face-aware crop")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		os.Exit(2)
	}

	ratio, err := frame.ParseRatio(*ratioFlag)
	if err != nil {
		log.Fatal(err)
	}
	fit, err := frame.ParseFit(*fitFlag)
	if err != nil {
		log.Fatal(err)
	}

	tuning := frame.DefaultTuning()
	var detector *frame.FaceDetector
	switch {
	case *noFaces:
	case *faces != "":
		detector, err = frame.LoadFaceDetector(*faces, tuning)
	default:
		var cascade []byte
		cascade, err = asset.NewManager().GetModel("facefinder")
		if err == nil {
			detector, err = frame.NewFaceDetector(cascade, tuning)
		}
	}
	if err != nil {
		log.Fatal(err)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatal(err)
	}

	c := frame.NewCompositor(tuning, detector)
	composite, err := c.Compose(context.Background(), data, http.DetectContentType(data), ratio, fit)
	if err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(*out, composite.Data, 0644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s -> %s: %dx%d (%s, %s)\n", *in, *out, composite.Width, composite.Height, ratio, fit)
}
