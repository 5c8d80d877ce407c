package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	hf         bool
	configPath string
	logLevel   string

	// 一次性下载模式参数
	runBounds string
	runZooms  string
	runFormat string
	runStyle  string
	runOutput string
)

func InitFlag() {
	flag.BoolVar(&hf, "h", false, "this help")
	flag.StringVar(&configPath, "c", "", "set config `file`")
	flag.StringVar(&logLevel, "l", "info", "set log level (default: info)")
	flag.StringVar(&runBounds, "bounds", "", "one-shot mode: bounding box `north,south,east,west`")
	flag.StringVar(&runZooms, "zooms", "", "one-shot mode: zoom levels, e.g. `3-7` or `3,5,7`")
	flag.StringVar(&runFormat, "format", FormatZip, "one-shot mode: output format (zip|mbtiles)")
	flag.StringVar(&runStyle, "style", StyleStandard, "one-shot mode: map style (standard|satellite)")
	flag.StringVar(&runOutput, "o", "", "one-shot mode: output `file` (default: {style}_tiles.{format})")
	flag.Usage = usage
	flag.Parse()

	if hf {
		flag.Usage()
		os.Exit(0)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `offtiler version: offtiler/v0.1.0
Usage: offtiler [-h] [-c filename] [-l logLevel]
       offtiler -bounds n,s,e,w -zooms 3-7 [-format zip|mbtiles] [-style standard|satellite] [-o file]

Without -bounds/-zooms the HTTP service starts on server.addr.
`)
	flag.PrintDefaults()
}
