/*
Copyright © 2019 the InMAP authors.
This file is part of rastermask.

rastermask is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rastermask is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rastermask.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package maskutil provides the command-line interface for rastermask.
package maskutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rastermask"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	templateFlags := []*pflag.FlagSet{templateCmd.Flags(), vectormaskCmd.Flags(), alignCmd.Flags(), runCmd.Flags()}

	// Options are the configuration options available to rastermask.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to print:
              debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Template.Proj",
			usage: `
              Template.Proj is the spatial reference of the template grid
              that all layers are aligned to, in proj4 or WKT format or as
              one of the EPSG codes 4326, 4269, 3857, 3310, 26911, 32610,
              or 32611 (e.g., EPSG:4326).`,
			defaultVal: "EPSG:4326",
			flagsets:   templateFlags,
		},
		{
			name: "Template.West",
			usage: `
              Template.West is the western edge of the template grid.`,
			defaultVal: 0.0,
			flagsets:   templateFlags,
		},
		{
			name: "Template.East",
			usage: `
              Template.East is the eastern edge of the template grid. If
              the cell width does not divide the extent evenly, the edge is
              moved to make a whole number of cells.`,
			defaultVal: 0.0,
			flagsets:   templateFlags,
		},
		{
			name: "Template.South",
			usage: `
              Template.South is the southern edge of the template grid.`,
			defaultVal: 0.0,
			flagsets:   templateFlags,
		},
		{
			name: "Template.North",
			usage: `
              Template.North is the northern edge of the template grid. If
              the cell height does not divide the extent evenly, the edge
              is moved to make a whole number of cells.`,
			defaultVal: 0.0,
			flagsets:   templateFlags,
		},
		{
			name: "Template.Dx",
			usage: `
              Template.Dx is the cell width, in the units of Template.Proj.`,
			defaultVal: 0.008,
			flagsets:   templateFlags,
		},
		{
			name: "Template.Dy",
			usage: `
              Template.Dy is the cell height, in the units of Template.Proj.`,
			defaultVal: 0.008,
			flagsets:   templateFlags,
		},
		{
			name: "Template.Fill",
			usage: `
              Template.Fill is the value of every cell in the template.`,
			defaultVal: 1.0,
			flagsets:   templateFlags,
		},
		{
			name: "VectorMasks",
			usage: `
              VectorMasks maps layer names to shapefiles or GeoJSON files
              to be rasterized onto the template grid. Names are
              converted to lower case when read from a configuration file.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{vectormaskCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "VectorMaskModes",
			usage: `
              VectorMaskModes maps VectorMasks layer names to how they are
              rasterized: "exclude" (the default) marks covered cells as
              no-data and other cells as 1; "include" does the opposite;
              "center", "touches", and "fraction" create value layers where
              cells are covered if their centers are within a feature,
              if they overlap a feature at all, or in proportion to the
              covered fraction of the cell.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{vectormaskCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "VectorProj",
			usage: `
              VectorProj is the spatial reference of GeoJSON inputs.
              Shapefiles use their .prj files instead.`,
			defaultVal: "EPSG:4326",
			flagsets:   []*pflag.FlagSet{vectormaskCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Layers",
			usage: `
              Layers maps layer names to raster files (NetCDF or Esri ASCII
              grid) to be aligned to the template grid. NetCDF files
              holding more than one variable must hold one with the name
              of the layer.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{alignCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Resampling",
			usage: `
              Resampling maps Layers names to resampling methods: "bilinear"
              (the default) for continuous data or "nearest" for categorical
              data.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{alignCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "RasterProj",
			usage: `
              RasterProj is the spatial reference of Esri ASCII grid inputs.
              NetCDF files carry their own.`,
			defaultVal: "EPSG:4326",
			flagsets:   []*pflag.FlagSet{alignCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Elevation",
			usage: `
              Elevation is the raster file holding elevations or depths to
              be converted to a different vertical datum.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{geoidCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "ElevationLayer",
			usage: `
              ElevationLayer is the variable to use if Elevation is a
              NetCDF file with more than one variable.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{geoidCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "ElevationProj",
			usage: `
              ElevationProj is the spatial reference of Elevation if it is
              an Esri ASCII grid.`,
			defaultVal: "EPSG:4326",
			flagsets:   []*pflag.FlagSet{geoidCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "ElevationName",
			usage: `
              ElevationName is the name given to the corrected elevation
              layer.`,
			defaultVal: "elevation",
			flagsets:   []*pflag.FlagSet{geoidCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "GeoidTiles",
			usage: `
              GeoidTiles is a list of raster tiles holding the offset
              between vertical datums. They may be local files, URLs, or
              blob storage locations, and must share a spatial reference,
              resolution, and grid alignment.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{geoidCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "GeoidProj",
			usage: `
              GeoidProj is the spatial reference of GeoidTiles that are
              Esri ASCII grids.`,
			defaultVal: "EPSG:4326",
			flagsets:   []*pflag.FlagSet{geoidCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "GeoidResampling",
			usage: `
              GeoidResampling is the method used to resample the datum
              offset onto the elevation grid: bilinear or nearest.`,
			defaultVal: "bilinear",
			flagsets:   []*pflag.FlagSet{geoidCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "GeoidMosaic",
			usage: `
              GeoidMosaic specifies which value to use where GeoidTiles
              overlap: first, last, or mean.`,
			defaultVal: "first",
			flagsets:   []*pflag.FlagSet{geoidCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Calc",
			usage: `
              Calc is a list of raster calculator expressions in the form
              "name = expression" (e.g., "depth = 0 - elevation"). They are
              evaluated in order after all other layers are added.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CriteriaFile",
			usage: `
              CriteriaFile is a TOML file listing the criteria that cells
              must meet to be eligible, and the layers to average over
              eligible cells.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{compositeCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "EligibleLayer",
			usage: `
              EligibleLayer is the name of the output layer marking cells
              that meet all criteria.`,
			defaultVal: "eligible",
			flagsets:   []*pflag.FlagSet{compositeCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "SuitabilityLayer",
			usage: `
              SuitabilityLayer is the name of the output layer holding the
              mean of the criteria Mean layers over eligible cells.`,
			defaultVal: "suitability",
			flagsets:   []*pflag.FlagSet{compositeCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "InputFile",
			usage: `
              InputFile is a NetCDF file holding the layers to process.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{compositeCmd.Flags(), statsCmd.Flags(), renderCmd.Flags()},
		},
		{
			name: "Layer",
			usage: `
              Layer is the name of the layer in InputFile to use. For stats,
              all layers are summarized if it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), renderCmd.Flags()},
		},
		{
			name: "Histogram",
			usage: `
              Histogram specifies whether to draw a histogram of the cell
              values instead of a map.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{renderCmd.Flags()},
		},
		{
			name: "Bins",
			usage: `
              Bins is the number of histogram bins.`,
			defaultVal: 20,
			flagsets:   []*pflag.FlagSet{renderCmd.Flags()},
		},
		{
			name: "Occurrence.URL",
			usage: `
              Occurrence.URL is the search endpoint of the species
              occurrence API. The API key is read from the
              RASTERMASK_OCCURRENCE_KEY environment variable.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{occurrencesCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Occurrence.Query",
			usage: `
              Occurrence.Query holds the query parameters sent to the
              occurrence API.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{occurrencesCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Occurrence.MaxPages",
			usage: `
              Occurrence.MaxPages is the maximum number of result pages to
              retrieve. Zero means no limit.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{occurrencesCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "Occurrence.TraitFile",
			usage: `
              Occurrence.TraitFile is a CSV table of species traits to join
              to the occurrence records.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{occurrencesCmd.Flags()},
		},
		{
			name: "Occurrence.TraitKey",
			usage: `
              Occurrence.TraitKey is the column of Occurrence.TraitFile that
              holds species names.`,
			defaultVal: "species",
			flagsets:   []*pflag.FlagSet{occurrencesCmd.Flags()},
		},
		{
			name: "Occurrence.CSVDir",
			usage: `
              Occurrence.CSVDir is a directory to write one CSV table per
              taxonomic group to.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{occurrencesCmd.Flags()},
		},
		{
			name: "Occurrence.PresenceLayer",
			usage: `
              Occurrence.PresenceLayer, if set, is the name of a layer
              marking the cells holding occurrence records, for use with
              the notpresent criterion.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the output file. The format is
              chosen by the extension: ".nc" (NetCDF), ".shp", ".asc", or
              ".png". Occurrence tables are written as ".xlsx". Paths
              starting with file://, gs://, or s3:// are uploaded to blob
              storage.`,
			defaultVal: "",
			flagsets: []*pflag.FlagSet{templateCmd.Flags(), vectormaskCmd.Flags(), alignCmd.Flags(),
				geoidCmd.Flags(), compositeCmd.Flags(), renderCmd.Flags(), occurrencesCmd.Flags()},
		},
		{
			name: "OutputFiles",
			usage: `
              OutputFiles is a list of files to save the pipeline layers to.
              See OutputFile for the supported formats.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputLayers",
			usage: `
              OutputLayers is a list of the layers to save. All layers are
              saved if it is empty.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			case map[string]string:
				b := bytes.NewBuffer(nil)
				json.NewEncoder(b).Encode(v)
				set.StringP(option.name, option.shorthand, strings.TrimSpace(b.String()), option.usage)
			default:
				panic("invalid argument type")
			}
		}
	}
	Cfg = newConfig()
}

// newConfig returns a configuration bound to the command-line flags.
func newConfig() *viper.Viper {
	cfg := viper.New()

	// Set the prefix for configuration environment variables.
	cfg.SetEnvPrefix("RASTERMASK")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	for _, option := range options {
		cfg.BindPFlag(option.name, option.flagsets[0].Lookup(option.name))
	}
	return cfg
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(templateCmd)
	Root.AddCommand(vectormaskCmd)
	Root.AddCommand(alignCmd)
	Root.AddCommand(geoidCmd)
	Root.AddCommand(compositeCmd)
	Root.AddCommand(statsCmd)
	Root.AddCommand(renderCmd)
	Root.AddCommand(occurrencesCmd)
	Root.AddCommand(runCmd)
}

// newLogger returns a logger writing to the error output of cmd, at the
// configured level.
func newLogger(cmd *cobra.Command) (*logrus.Logger, error) {
	log := logrus.New()
	log.Out = os.Stderr
	if cmd != nil {
		log.Out = cmd.OutOrStderr()
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return nil, fmt.Errorf("maskutil: LogLevel: %v", err)
	}
	log.Level = level
	return log, nil
}

// outChan returns a channel whose messages are written to log. It
// should be closed when no more messages will be sent.
func outChan(log logrus.FieldLogger) chan string {
	c := make(chan string)
	go func() {
		for msg := range c {
			log.Info(strings.TrimSpace(msg))
		}
	}()
	return c
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("rastermask: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "rastermask",
	Short: "Raster alignment and composite masking for siting maps.",
	Long: `rastermask builds habitat suitability and aquaculture siting maps by
aligning raster and vector layers onto a common template grid and combining
them with a set of criteria. Use the subcommands specified below to run
individual steps or the whole pipeline.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'RASTERMASK_var' where 'var' is the
name of the variable to be set, with '.' replaced by '_'. Many configuration
variables are additionally allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of rastermask.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("rastermask v%s\n", rastermask.Version)
	},
	DisableAutoGenTag: true,
}

// command sets up the logger, message channel, and step builder shared
// by the subcommands, and runs f with them.
func command(cmd *cobra.Command, f func(b *builder) error) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	c := outChan(log)
	defer close(c)
	return f(newBuilder(context.Background(), Cfg, log, c))
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Create a template raster",
	Long: `template creates the reference raster that defines the spatial
reference, extent, and resolution all other layers are aligned to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return command(cmd, func(b *builder) error {
			t, err := rastermask.NewTemplate(templateConfig(Cfg))
			if err != nil {
				return err
			}
			return saveLayers(b, Cfg.GetString("OutputFile"), map[string]*rastermask.Raster{"template": t})
		})
	},
	DisableAutoGenTag: true,
}

var vectormaskCmd = &cobra.Command{
	Use:   "vectormask",
	Short: "Rasterize vector layers onto the template grid",
	Long: `vectormask converts the vector layers listed in VectorMasks into
inclusion or exclusion masks (or value layers) on the template grid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return command(cmd, func(b *builder) error {
			masks, err := b.vectorMasks()
			if err != nil {
				return err
			}
			u := new(uploader)
			out, err := b.outputs(u, []string{Cfg.GetString("OutputFile")})
			if err != nil {
				return err
			}
			_, err = b.run(u, b.template(), masks, out)
			return err
		})
	},
	DisableAutoGenTag: true,
}

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align rasters to the template grid",
	Long: `align resamples the rasters listed in Layers onto the template grid
so that they share its spatial reference, extent, and resolution.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return command(cmd, func(b *builder) error {
			layers, err := b.alignedLayers()
			if err != nil {
				return err
			}
			u := new(uploader)
			out, err := b.outputs(u, []string{Cfg.GetString("OutputFile")})
			if err != nil {
				return err
			}
			_, err = b.run(u, b.template(), layers, out)
			return err
		})
	},
	DisableAutoGenTag: true,
}

var geoidCmd = &cobra.Command{
	Use:   "geoid",
	Short: "Convert elevations to a different vertical datum",
	Long: `geoid adds the datum offset held in GeoidTiles to the Elevation
raster. The tiles covering the elevation extent are mosaicked and resampled
onto the elevation grid, so the output has exactly the elevation extent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return command(cmd, func(b *builder) error {
			elev, err := b.elevation()
			if err != nil {
				return err
			}
			g, err := b.geoidTiles()
			if err != nil {
				return err
			}
			r, err := g.correct(elev)
			if err != nil {
				return err
			}
			return saveLayers(b, Cfg.GetString("OutputFile"),
				map[string]*rastermask.Raster{Cfg.GetString("ElevationName"): r})
		})
	},
	DisableAutoGenTag: true,
}

var compositeCmd = &cobra.Command{
	Use:   "composite",
	Short: "Apply criteria to aligned layers",
	Long: `composite evaluates the criteria in CriteriaFile against the layers
in InputFile, and saves the eligible cells and their mean suitability.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return command(cmd, func(b *builder) error {
			layers, err := b.inputLayers()
			if err != nil {
				return err
			}
			c, err := loadCriteria(b.ctx, Cfg.GetString("CriteriaFile"), b.c)
			if err != nil {
				return err
			}
			eligible, mean, err := c.Evaluate(layers)
			if err != nil {
				return err
			}
			out := map[string]*rastermask.Raster{Cfg.GetString("EligibleLayer"): eligible}
			if mean != nil {
				out[Cfg.GetString("SuitabilityLayer")] = mean
			}
			b.log.WithField("cells", eligible.Valid()).Info("eligible cells")
			return saveLayers(b, Cfg.GetString("OutputFile"), out)
		})
	},
	DisableAutoGenTag: true,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print summary statistics of layers",
	Long:  `stats prints summary statistics for the layers in InputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return command(cmd, func(b *builder) error {
			layers, err := b.inputLayers()
			if err != nil {
				return err
			}
			names := []string{Cfg.GetString("Layer")}
			if names[0] == "" {
				names = names[:0]
				for n := range layers {
					names = append(names, n)
				}
				sort.Strings(names)
			}
			for _, n := range names {
				r, ok := layers[n]
				if !ok {
					return fmt.Errorf("maskutil: InputFile has no layer named %q", n)
				}
				cmd.Printf("%s: %v\n", n, r.Stats())
			}
			return nil
		})
	},
	DisableAutoGenTag: true,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Draw a map or histogram of a layer",
	Long: `render draws a map of a layer in InputFile, or a histogram of its
cell values, and saves it as a PNG image.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return command(cmd, func(b *builder) error {
			layers, err := b.inputLayers()
			if err != nil {
				return err
			}
			name := Cfg.GetString("Layer")
			r, err := pickLayer(layers, name, Cfg.GetString("InputFile"))
			if err != nil {
				return err
			}
			if !Cfg.GetBool("Histogram") {
				return saveLayers(b, Cfg.GetString("OutputFile"), map[string]*rastermask.Raster{name: r})
			}
			p, err := rastermask.HistogramPlot(r, name, Cfg.GetInt("Bins"))
			if err != nil {
				return err
			}
			return savePlot(b, Cfg.GetString("OutputFile"), p)
		})
	},
	DisableAutoGenTag: true,
}

var occurrencesCmd = &cobra.Command{
	Use:   "occurrences",
	Short: "Download and tabulate species occurrence records",
	Long: `occurrences retrieves species occurrence records, removes records
without a usable category or location along with duplicates, joins them to
an optional trait table, and saves them as an Excel workbook (OutputFile)
and/or one CSV table per taxonomic group (Occurrence.CSVDir).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return command(cmd, func(b *builder) error {
			return occurrenceTables(b)
		})
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole siting pipeline",
	Long: `run creates the template grid, adds the vector masks, occurrence
presence layer, aligned rasters, and datum-corrected elevation, evaluates
the Calc expressions and the criteria in CriteriaFile (if any), and saves
the results to OutputFiles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return command(cmd, func(b *builder) error {
			return pipeline(b)
		})
	},
	DisableAutoGenTag: true,
}
