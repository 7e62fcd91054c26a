package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	spacepacket "github.com/yobol/go-spacepacket"
	"github.com/yobol/go-spacepacket/bitstream"
	"github.com/yobol/go-spacepacket/xtce/xtcexml"
)

func main() {
	defPath := flag.String("def", "", "path to an XTCE-flavored packet definition XML file")
	dataPath := flag.String("data", "", "path to a binary file of concatenated CCSDS space packets")
	skipHeaderBytes := flag.Int("skip-header-bytes", 0, "bytes to discard before each packet's primary header")
	yieldUnrecognized := flag.Bool("yield-unrecognized-apids", false, "emit a header-only packet instead of failing on an unrecognized APID")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	spacepacket.SetLogger(logger)

	if *defPath == "" || *dataPath == "" {
		fmt.Fprintln(os.Stderr, "usage: spacepacketdump -def <xtce.xml> -data <packets.bin>")
		os.Exit(2)
	}

	defFile, err := os.Open(*defPath)
	if err != nil {
		logger.WithError(err).Fatal("opening packet definition")
	}
	defer defFile.Close()

	def, err := xtcexml.Load(defFile)
	if err != nil {
		logger.WithError(err).Fatal("loading packet definition")
	}

	dataFile, err := os.Open(*dataPath)
	if err != nil {
		logger.WithError(err).Fatal("opening packet data")
	}
	defer dataFile.Close()

	opts := []spacepacket.Option{spacepacket.WithSkipHeaderBytes(*skipHeaderBytes)}
	if *yieldUnrecognized {
		opts = append(opts, spacepacket.WithUnrecognizedAPIDs(true))
	}
	gen := spacepacket.NewFileGenerator(dataFile, def, opts...)

	ctx := context.Background()
	for {
		pkt, err := gen.Next(ctx)
		if err != nil {
			if errors.Is(err, bitstream.ErrEOF) {
				break
			}
			logger.WithError(err).Fatal("decoding packet")
		}
		fmt.Printf("APID=%d SEQ=%d LEN=%d\n", pkt.Header.APID, pkt.Header.SeqCount, pkt.Header.PacketLength())
		for _, name := range pkt.Values.Names() {
			v, _ := pkt.Values.Get(name)
			if v.Derived != nil {
				fmt.Printf("  %-24s = %v\n", name, v.Derived)
			} else {
				fmt.Printf("  %-24s = %v\n", name, v.Raw)
			}
		}
	}

	fmt.Fprintf(os.Stderr, "decoded %d packets, %d bytes\n", gen.PacketsRead(), gen.BytesRead())
}
