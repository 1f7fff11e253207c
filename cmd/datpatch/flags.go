package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/udisondev/la2dat/internal/config"
)

type options struct {
	configPath string

	noInfo   bool
	noDrops  bool
	noSpoils bool
	vip      bool

	dropDisplay string
	provider    string
	codec       string

	store  bool
	verify bool

	// set holds the names of flags given on the command line.
	set map[string]bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var o options

	fs := flag.NewFlagSet("datpatch", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&o.configPath, "config", "", "config file (default $LA2DAT_CONFIG or "+DefaultConfigPath+")")
	fs.BoolVar(&o.noInfo, "no-info", false, "skip the NPC information skill")
	fs.BoolVar(&o.noDrops, "no-drops", false, "skip the drop list skill")
	fs.BoolVar(&o.noSpoils, "no-spoils", false, "skip the spoil list skill")
	fs.BoolVar(&o.vip, "vip", false, "show drops and experience with VIP rates")
	fs.StringVar(&o.dropDisplay, "drop_display", "", "chance display: percent or fraction")
	fs.StringVar(&o.provider, "provider", "", "npc data source: xml or postgres")
	fs.StringVar(&o.codec, "codec", "", "table codec: exec or text")
	fs.BoolVar(&o.store, "store", false, "save the XML npc snapshots to PostgreSQL")
	fs.BoolVar(&o.verify, "verify", false, "check the output against its manifest and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// apply overrides cfg with the flags given on the command line.
func (o options) apply(cfg *config.Builder) {
	if o.noInfo {
		cfg.Categories.Information.Include = false
	}
	if o.noDrops {
		cfg.Categories.Drop.Include = false
	}
	if o.noSpoils {
		cfg.Categories.Spoil.Include = false
	}
	if o.vip {
		cfg.VIP.Enabled = true
	}
	if o.set["drop_display"] {
		cfg.DropDisplay = o.dropDisplay
	}
	if o.set["provider"] {
		cfg.Provider = o.provider
	}
	if o.set["codec"] {
		cfg.Codec = o.codec
	}
}

// check rejects flag combinations the config cannot express.
func (o options) check(cfg config.Builder) error {
	if o.store && cfg.Provider != config.ProviderXML {
		return fmt.Errorf("%w: -store needs the xml provider, got %q", config.ErrInvalidConfig, cfg.Provider)
	}
	return nil
}
