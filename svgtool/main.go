package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/speedata/optionparser"
	"github.com/speedata/svgoverlay/bag"
	"github.com/speedata/svgoverlay/csshtml"
	"github.com/speedata/svgoverlay/overlay"
)

type settings struct {
	cfg     overlay.Config
	command string
	infile  string
	outfile string
	nowait  bool
}

func parseArgs(args []string) (*settings, error) {
	var configfile, format, scale, marker, concurrency, quality, loglevel string
	s := &settings{}

	op := optionparser.NewOptionParser()
	op.Banner = "svgtool [options] convert|restore <in.html> [<out.html>]"
	op.On("--config FILE", "Read settings from the TOML file", &configfile)
	op.On("--format MIME", "Raster format (image/png or image/jpeg)", &format)
	op.On("--scale FACTOR", "Scale the raster images", &scale)
	op.On("--quality Q", "JPEG quality (1-100)", &quality)
	op.On("--marker CLASS", "Class of the raster overlays", &marker)
	op.On("--concurrency N", "Number of parallel encodings", &concurrency)
	op.On("--loglevel LEVEL", "Log level (debug, info, warn, error)", &loglevel)
	op.On("--nowait", "Write the document without waiting for the encodings", &s.nowait)
	op.Command("convert", "Replace svg elements by raster images")
	op.Command("restore", "Remove raster images and show the svg elements")
	if err := op.ParseFrom(args); err != nil {
		return nil, err
	}

	if len(op.Extra) < 2 || len(op.Extra) > 3 {
		op.Help()
		return nil, fmt.Errorf("wrong number of arguments")
	}
	s.command, s.infile = op.Extra[0], op.Extra[1]
	if len(op.Extra) == 3 {
		s.outfile = op.Extra[2]
	}
	switch s.command {
	case "convert", "restore":
	default:
		return nil, fmt.Errorf("unknown command %q", s.command)
	}

	var err error
	s.cfg = overlay.DefaultConfig()
	if configfile != "" {
		if s.cfg, err = overlay.LoadConfig(configfile); err != nil {
			return nil, err
		}
	}
	if format != "" {
		s.cfg.Format = format
	}
	if marker != "" {
		s.cfg.Marker = marker
	}
	if loglevel != "" {
		s.cfg.LogLevel = loglevel
	}
	if scale != "" {
		if s.cfg.Scale, err = strconv.ParseFloat(scale, 64); err != nil {
			return nil, fmt.Errorf("--scale: %w", err)
		}
	}
	if quality != "" {
		if s.cfg.Quality, err = strconv.Atoi(quality); err != nil {
			return nil, fmt.Errorf("--quality: %w", err)
		}
	}
	if concurrency != "" {
		if s.cfg.Concurrency, err = strconv.Atoi(concurrency); err != nil {
			return nil, fmt.Errorf("--concurrency: %w", err)
		}
	}
	return s, nil
}

func run(s *settings, stdout io.Writer) error {
	if err := bag.SetLogLevel(s.cfg.LogLevel); err != nil {
		return err
	}
	doc, err := csshtml.OpenHTMLFile(s.infile)
	if err != nil {
		return err
	}
	tg, err := overlay.New(doc, s.cfg.Encoder(), s.cfg.Options()...)
	if err != nil {
		return err
	}

	switch s.command {
	case "convert":
		c := tg.ConvertAllSVGsToPngs()
		if !s.nowait {
			c.Wait()
		}
	case "restore":
		tg.RestoreSVGs()
	}

	if s.outfile == "" {
		return tg.Render(stdout)
	}
	bag.Logger.Infof("Write file %s", s.outfile)
	return writeFile(s.outfile, tg.Render)
}

// writeFile creates filename and fills it with render. A failing Close is
// reported when render succeeded, so a short write on a full disk is not
// lost.
func writeFile(filename string, render func(io.Writer) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err = render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func dothings() error {
	s, err := parseArgs(os.Args)
	if err != nil {
		return err
	}
	return run(s, os.Stdout)
}

func main() {
	if err := dothings(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
