package commands

import (
	"github.com/LynnColeArt/gudafem"
	"github.com/LynnColeArt/gudafem/internal/config"
	"github.com/LynnColeArt/gudafem/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	ctx     *gudafem.Context
}

// NewRootCommand builds the fieldarray command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "fieldarray",
		Short: "Inspect strided device field arrays",
		Long: `fieldarray allocates a finite-element field array on the GUDA device
runtime and prints its layout, contents, or inner product.

Settings come from flags, GUDAFEM_* environment variables, and an optional
YAML file passed with --config.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("layout", "", "array layout (interleaved, planar)")
	flags.String("element", "", "element type (float32, float64, int32, int64)")
	flags.IntSlice("extents", nil, "array extents, 1 to 4 values")
	flags.Bool("transposed", false, "use the transposed planar convention")
	flags.Int64("memory-limit-mb", 0, "device memory limit in MiB (0 for unlimited)")

	a.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	a.v.BindPFlag("array.layout", flags.Lookup("layout"))
	a.v.BindPFlag("array.element", flags.Lookup("element"))
	a.v.BindPFlag("array.extents", flags.Lookup("extents"))
	a.v.BindPFlag("array.transposed", flags.Lookup("transposed"))
	a.v.BindPFlag("device.memory_limit_mb", flags.Lookup("memory-limit-mb"))

	root.AddCommand(
		newLayoutCommand(a),
		newDumpCommand(a),
		newDotCommand(a),
		newDeviceCommand(a),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.Logging.Level, cfg.Logging.File, cfg.Logging.Console); err != nil {
		return err
	}

	opts := []gudafem.ContextOption{gudafem.WithMemoryLimit(cfg.MemoryLimitBytes())}
	if cfg.Device.Name != "" {
		opts = append(opts, gudafem.WithName(cfg.Device.Name))
	}
	a.cfg = cfg
	a.ctx = gudafem.NewContext(opts...)

	if a.cfgFile != "" {
		logging.Infof("fieldarray: loaded config %s", a.cfgFile)
	}
	logging.Debugf("fieldarray: device %s", a.ctx.Device())
	return nil
}
