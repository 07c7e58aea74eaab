// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Command mapinfo inspects a Mapsforge binary map file: its header, and
// the POI/way counts for a single requested tile.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kelindar/mapsforge-go"
)

var verbose bool

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mapinfo",
		Short: "Inspect Mapsforge binary map files",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
	root.AddCommand(newHeaderCmd(), newTileCmd())
	return root
}

func newHeaderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "header <file>",
		Short: "Print a map file's header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync() //nolint:errcheck

			log.Info("opening map file", zap.String("path", args[0]))
			r, err := mapsforge.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			info, err := r.GetMapFileInfo()
			if err != nil {
				return err
			}

			fmt.Printf("fileSize:         %d\n", info.FileSize)
			fmt.Printf("fileVersion:      %d\n", info.FileVersion)
			fmt.Printf("mapDate:          %d\n", info.MapDate)
			fmt.Printf("projectionName:   %s\n", info.ProjectionName)
			fmt.Printf("tilePixelSize:    %d\n", info.TilePixelSize)
			fmt.Printf("boundingBox:      (%d, %d, %d, %d)\n",
				info.BoundingBox.MinLat, info.BoundingBox.MinLon, info.BoundingBox.MaxLat, info.BoundingBox.MaxLon)
			fmt.Printf("numberOfSubFiles: %d\n", info.NumberOfSubFiles)
			fmt.Printf("debugFile:        %t\n", info.DebugFile)
			fmt.Printf("poiTags:          %d\n", len(info.PoiTags))
			fmt.Printf("wayTags:          %d\n", len(info.WayTags))
			return nil
		},
	}
}

func newTileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tile <file> <x> <y> <z>",
		Short: "Read one tile and print its POI/way counts",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync() //nolint:errcheck

			x, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid tile x %q: %w", args[1], err)
			}
			y, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid tile y %q: %w", args[2], err)
			}
			z, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid tile zoom %q: %w", args[3], err)
			}

			r, err := mapsforge.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			tile := mapsforge.Tile{X: x, Y: y, Zoom: z}
			log.Info("reading tile", zap.Stringer("tile", tile))

			result, err := r.ReadMapData(tile)
			if err != nil {
				return err
			}

			fmt.Printf("water: %t\n", result.Water)
			fmt.Printf("pois:  %d\n", len(result.POIs))
			fmt.Printf("ways:  %d\n", len(result.Ways))
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
