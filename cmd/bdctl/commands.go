package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/birddog-tools/bdctl/internal/birddog"
	"github.com/birddog-tools/bdctl/internal/config"
	"github.com/birddog-tools/bdctl/internal/logging"
	"github.com/birddog-tools/bdctl/internal/ui"
)

// Command flags
var (
	deviceFlag   string
	passwordFlag string
	askPassword  bool
	timeoutSec   int
)

func init() {
	// Common flags for device commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&deviceFlag, "device", "", "Device alias or host (defaults to the configured default device)")
	rootCmd.PersistentFlags().StringVar(&passwordFlag, "password", "", "Web interface password (defaults to the factory password)")
	rootCmd.PersistentFlags().BoolVar(&askPassword, "ask-password", false, "Prompt for the web interface password")
	rootCmd.PersistentFlags().IntVar(&timeoutSec, "timeout", 0, "HTTP timeout in seconds (0 = configured or built-in default)")

	rootCmd.AddCommand(hostnameCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(audioCmd)
	rootCmd.AddCommand(outputCmd)
	rootCmd.AddCommand(sourceCmd)
	rootCmd.AddCommand(deviceCmd)
}

// withDevice resolves the target device, opens a client against it, runs fn,
// and closes the client. A successful run updates the alias last-seen stamp.
func withDevice(cmd *cobra.Command, fn func(ctx context.Context, client *birddog.Client) error) error {
	ctx := cmd.Context()

	registry, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	host, err := registry.Resolve(deviceFlag)
	if err != nil {
		return err
	}

	client, err := birddog.NewClient(host)
	if err != nil {
		return err
	}

	if askPassword {
		password, err := promptPassword()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		client.SetPassword(password)
	} else if passwordFlag != "" {
		client.SetPassword(passwordFlag)
	}

	if timeoutSec > 0 {
		client.SetTimeout(time.Duration(timeoutSec) * time.Second)
	} else if registry.Preferences.RequestTimeout > 0 {
		client.SetTimeout(time.Duration(registry.Preferences.RequestTimeout) * time.Second)
	}

	if err := client.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(ctx); cerr != nil {
			logging.Warn("client close failed: " + cerr.Error())
		}
	}()

	if err := fn(ctx, client); err != nil {
		return err
	}

	markSeen(registry)
	return nil
}

// markSeen stamps the resolved alias after a successful device interaction.
func markSeen(registry *config.Registry) {
	alias := deviceFlag
	if alias == "" {
		alias = registry.DefaultDevice
	}
	if _, ok := registry.Devices[alias]; !ok {
		return
	}
	registry.MarkSeen(alias)
	if err := registry.Save(); err != nil {
		logging.Warn("save configuration failed: " + err.Error())
	}
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Web interface password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

// hostnameCmd prints the device hostname
var hostnameCmd = &cobra.Command{
	Use:   "hostname",
	Short: "Print the device hostname",
	Example: `  # Hostname of the default device
  bdctl hostname

  # Hostname of a specific device
  bdctl hostname --device 192.168.100.100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			name, err := client.GetHostname(ctx)
			if err != nil {
				return err
			}
			fmt.Println(name)
			return nil
		})
	},
}

// rebootCmd power-cycles the device
var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the device",
	Long: `Trigger a full device reboot.

The device drops off the network while it restarts; the command returns as
soon as the reboot is triggered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			if err := client.Reboot(ctx); err != nil {
				return err
			}
			fmt.Println(ui.RenderSuccess("reboot triggered"))
			return nil
		})
	},
}

// restartCmd restarts the video subsystem only
var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the device video subsystem",
	Long: `Restart the video processing subsystem without a full reboot.

Use this after settings changes that need the video pipeline to pick them
up. The device stays on the network.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			if err := client.Restart(ctx); err != nil {
				return err
			}
			fmt.Println(ui.RenderSuccess("video subsystem restarted"))
			return nil
		})
	},
}

// modeCmd groups operation mode subcommands
var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Get or set the operation mode (encode/decode)",
}

var modeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current operation mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			mode, err := client.GetOperationMode(ctx)
			if err != nil {
				return err
			}
			fmt.Println(mode.String())
			return nil
		})
	},
}

var modeSetCmd = &cobra.Command{
	Use:   "set <encode|decode>",
	Short: "Switch the device between encode and decode mode",
	Example: `  # Turn the device into an NDI decoder
  bdctl mode set decode --device studio`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := birddog.ParseOperationMode(args[0])
		if err != nil {
			return err
		}
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			if err := client.SetOperationMode(ctx, mode); err != nil {
				return err
			}
			fmt.Println(ui.RenderSuccess("operation mode set to " + mode.String()))
			return nil
		})
	},
}

func init() {
	modeCmd.AddCommand(modeGetCmd)
	modeCmd.AddCommand(modeSetCmd)
}

// audioCmd groups analog audio subcommands
var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Inspect the analog audio configuration",
}

var audioGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the analog audio gains and output routing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			setup, err := client.GetAudioSetup(ctx)
			if err != nil {
				return err
			}
			fmt.Print(ui.RenderAudioSetup(&setup))
			return nil
		})
	},
}

func init() {
	audioCmd.AddCommand(audioGetCmd)
}

// outputCmd groups video output subcommands
var outputCmd = &cobra.Command{
	Use:   "output",
	Short: "Get or set the video output routing (sdi/hdmi)",
}

var outputGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current video output",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			output, err := client.GetVideoOutput(ctx)
			if err != nil {
				return err
			}
			fmt.Println(output.String())
			return nil
		})
	},
}

var outputSetCmd = &cobra.Command{
	Use:   "set <sdi|hdmi>",
	Short: "Route decoded video to the SDI or HDMI connector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := birddog.ParseVideoOutput(args[0])
		if err != nil {
			return err
		}
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			if err := client.SetVideoOutput(ctx, output); err != nil {
				return err
			}
			fmt.Println(ui.RenderSuccess("video output set to " + output.String()))
			return nil
		})
	},
}

func init() {
	outputCmd.AddCommand(outputGetCmd)
	outputCmd.AddCommand(outputSetCmd)
}

// sourceCmd groups NDI source subcommands
var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "List, select, and refresh NDI sources",
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the NDI sources visible to the device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			sources, err := client.ListSources(ctx)
			if err != nil {
				return err
			}
			fmt.Print(ui.RenderSourceList(sources))
			return nil
		})
	},
}

var sourceCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the source the decoder is tuned to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			src, err := client.GetSource(ctx)
			if err != nil {
				return err
			}
			fmt.Print(ui.RenderCurrentSource(&src))
			return nil
		})
	},
}

var sourceSetCmd = &cobra.Command{
	Use:   "set <name|index>",
	Short: "Tune the decoder to an NDI source",
	Long: `Tune the decoder to an NDI source by its full name or by its index
in 'source list'. A purely numeric argument is treated as an index.`,
	Example: `  # By index from 'source list'
  bdctl source set 2

  # By full NDI source name
  bdctl source set "BIRDDOG-12345 (CAM)"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := strings.Join(args, " ")
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			if index, err := strconv.Atoi(target); err == nil && len(args) == 1 {
				if err := client.SetSourceIndex(ctx, index); err != nil {
					return err
				}
			} else {
				if err := client.SetSource(ctx, target); err != nil {
					return err
				}
			}
			fmt.Println(ui.RenderSuccess("source selected"))
			return nil
		})
	},
}

var sourceRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Ask the device to rescan the network for NDI sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			if err := client.RefreshSources(ctx); err != nil {
				return err
			}
			fmt.Println(ui.RenderSuccess("source rescan triggered"))
			return nil
		})
	},
}

var sourcePickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Pick an NDI source interactively",
	Long: `List the NDI sources visible to the device in an interactive picker
and tune the decoder to the chosen one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *birddog.Client) error {
			sources, err := client.ListSources(ctx)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				fmt.Print(ui.RenderSourceList(sources))
				return nil
			}

			picked, err := ui.PickSource(sources)
			if err != nil {
				return err
			}
			if picked == nil {
				fmt.Println("no source selected")
				return nil
			}

			if err := client.SetSource(ctx, picked.Name); err != nil {
				return err
			}
			fmt.Println(ui.RenderSuccess("tuned to " + picked.Name))
			return nil
		})
	},
}

func init() {
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceCurrentCmd)
	sourceCmd.AddCommand(sourceSetCmd)
	sourceCmd.AddCommand(sourceRefreshCmd)
	sourceCmd.AddCommand(sourcePickCmd)
}

// deviceCmd groups device registry subcommands. These work on the local
// configuration only and never contact a device.
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage device aliases in the local configuration",
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured device aliases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.Load()
		if err != nil {
			return err
		}
		aliases := registry.Aliases()
		if len(aliases) == 0 {
			fmt.Println("No devices configured. Add one with 'bdctl device add <alias> <host>'.")
			return nil
		}
		for _, alias := range aliases {
			device := registry.Devices[alias]
			marker := "   "
			if alias == registry.DefaultDevice {
				marker = " * "
			}
			line := fmt.Sprintf("%s%-16s %s", marker, alias, device.Host)
			if !device.LastSeen.IsZero() {
				line += "  (last seen " + device.LastSeen.Format("2006-01-02 15:04") + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var deviceAddCmd = &cobra.Command{
	Use:   "add <alias> <host>",
	Short: "Register a device alias",
	Example: `  bdctl device add studio 192.168.100.100
  bdctl device add stage birddog-stage.local`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.Load()
		if err != nil {
			return err
		}
		registry.AddDevice(args[0], args[1])
		if err := registry.Save(); err != nil {
			return err
		}
		fmt.Println(ui.RenderSuccess("added " + args[0]))
		return nil
	},
}

var deviceRemoveCmd = &cobra.Command{
	Use:   "remove <alias>",
	Short: "Remove a device alias",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.Load()
		if err != nil {
			return err
		}
		if !registry.RemoveDevice(args[0]) {
			return fmt.Errorf("unknown device alias %q", args[0])
		}
		if err := registry.Save(); err != nil {
			return err
		}
		fmt.Println(ui.RenderSuccess("removed " + args[0]))
		return nil
	},
}

var deviceDefaultCmd = &cobra.Command{
	Use:   "default <alias>",
	Short: "Set the default device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.Load()
		if err != nil {
			return err
		}
		if err := registry.SetDefault(args[0]); err != nil {
			return err
		}
		if err := registry.Save(); err != nil {
			return err
		}
		fmt.Println(ui.RenderSuccess("default device is now " + args[0]))
		return nil
	},
}

func init() {
	deviceCmd.AddCommand(deviceListCmd)
	deviceCmd.AddCommand(deviceAddCmd)
	deviceCmd.AddCommand(deviceRemoveCmd)
	deviceCmd.AddCommand(deviceDefaultCmd)
}
