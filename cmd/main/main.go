package main

import (
	"fadingrose/dawnforge/contracts"
	"fadingrose/dawnforge/core/asm"
	"fadingrose/dawnforge/core/tracing"
	"fadingrose/dawnforge/core/vm"
	"fadingrose/dawnforge/db"
	"fadingrose/dawnforge/forge"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

func main() {
	// Provisional logger so the settings loader can speak.
	setupLogger(3)
	settings := forge.LoadSettings(forge.SettingsFile)

	var (
		configPath  string
		outputDir   string
		dataDir     string
		verbosity   int
		trace       bool
		showRuntime bool
	)

	app := &cli.App{
		Name:  "dawnforge",
		Usage: "Forge chain genesis files by executing system contract deployments",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "verbosity",
				Usage:       "Log verbosity, 0 (silent) through 5 (trace)",
				Value:       settings.Verbosity,
				Destination: &verbosity,
			},
		},
		Before: func(c *cli.Context) error {
			setupLogger(verbosity)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Build genesis files for the preset networks, or for one custom network",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "config",
						Aliases:     []string{"c"},
						Usage:       "Network configuration JSON; omit to rebuild the devnet and localnet presets",
						Destination: &configPath,
					},
					&cli.StringFlag{
						Name:        "out",
						Aliases:     []string{"o"},
						Usage:       "Directory receiving the genesis files",
						Value:       settings.OutputDir,
						Destination: &outputDir,
					},
					&cli.StringFlag{
						Name:        "datadir",
						Usage:       "Key-value store receiving a copy of every built genesis",
						Value:       settings.DataDir,
						Destination: &dataDir,
					},
					&cli.BoolFlag{
						Name:        "trace",
						Usage:       "Log every opcode and call frame of the deployments",
						Destination: &trace,
					},
				},
				Action: func(c *cli.Context) error {
					if trace && verbosity < 5 {
						setupLogger(5)
					}
					return build(configPath, outputDir, dataDir, trace)
				},
			},
			{
				Name:      "disasm",
				Usage:     "Disassemble a bundled system contract",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "runtime",
						Usage:       "Show the deployed runtime instead of the constructor code",
						Destination: &showRuntime,
					},
				},
				Action: func(c *cli.Context) error {
					return disasm(c.Args().First(), showRuntime)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println("runtime err", err)
		os.Exit(1)
	}
}

func setupLogger(verbosity int) {
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(verbosity), false)
	log.SetDefault(log.NewLogger(handler))
}

func build(configPath, outputDir, dataDir string, trace bool) error {
	var vmcfg vm.Config
	if trace {
		vmcfg.Tracer = traceHooks()
	}

	type target struct {
		config *forge.Config
		file   string
	}
	var targets []target
	if configPath != "" {
		config, err := forge.LoadConfig(configPath)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(configPath), filepath.Ext(configPath))
		targets = append(targets, target{config, "genesis-" + name + ".json"})
	} else {
		targets = append(targets,
			target{forge.DevNet, "genesis-devnet.json"},
			target{forge.LocalNet, "genesis-localnet.json"},
		)
	}

	var store *db.Store
	if dataDir != "" {
		var err error
		store, err = db.Open(dataDir)
		if err != nil {
			return fmt.Errorf("open data dir: %w", err)
		}
		defer store.Close()
	}

	for _, tgt := range targets {
		genesis, err := forge.Generate(tgt.config, filepath.Join(outputDir, tgt.file), vmcfg)
		if err != nil {
			return err
		}
		if store != nil {
			hash, err := genesis.Commit(store)
			if err != nil {
				return err
			}
			log.Info("Genesis committed", "hash", hash)
		}
	}
	return nil
}

func disasm(name string, runtime bool) error {
	artifact, err := contracts.Load(name)
	if err != nil {
		return fmt.Errorf("%w (bundled: %s)", err, strings.Join(contracts.Names(), ", "))
	}
	code := artifact.Bytecode
	if runtime {
		code = artifact.DeployedBytecode
	}
	instrs, tail, err := asm.DisassembleReachable(code)
	if err != nil {
		return err
	}
	for _, instr := range instrs {
		fmt.Println(instr)
	}
	if len(tail) > 0 {
		fmt.Printf("%05x: ; name marker %q\n", len(code)-len(tail), tail)
	}
	return nil
}

// traceHooks reports every opcode and call frame at trace level.
func traceHooks() *tracing.Hooks {
	return &tracing.Hooks{
		OnEnter: func(depth int, typ byte, from common.Address, to common.Address, input []byte, gas uint64, value *big.Int) {
			log.Trace("Frame enter", "depth", depth, "type", vm.OpCode(typ), "from", from, "to", to, "gas", gas, "value", value)
		},
		OnExit: func(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
			log.Trace("Frame exit", "depth", depth, "gasUsed", gasUsed, "reverted", reverted, "err", err)
		},
		OnOpcode: func(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
			log.Trace("Opcode", "pc", pc, "op", vm.OpCode(op), "gas", gas, "cost", cost, "depth", depth)
		},
		OnFault: func(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, depth int, err error) {
			log.Trace("Fault", "pc", pc, "op", vm.OpCode(op), "err", err)
		},
	}
}
