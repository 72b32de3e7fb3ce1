/*
File Name:  main.go
Copyright:  2021 Peernet s.r.o.
*/

package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/PeernetOfficial/nebula"
	"github.com/PeernetOfficial/nebula/protocol"
	"github.com/PeernetOfficial/nebula/webapi"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	configFile string
	envFiles   []string
)

var rootCmd = &cobra.Command{
	Use:           "nebula",
	Short:         "Nebula peer discovery node",
	Long:          "A node of the Nebula overlay. It keeps a routing table of live peers and discovers new peers by asking known ones.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run:           runNode,
}

var nodeIDCmd = &cobra.Command{
	Use:   "nodeid <ip> <port>",
	Short: "Print the node ID derived from an IP and port",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ip := net.ParseIP(args[0])
		if ip == nil {
			return fmt.Errorf("invalid IP '%s'", args[0])
		}
		port, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			return fmt.Errorf("invalid port '%s'", args[1])
		}

		id, err := protocol.DeriveNodeID(ip, uint16(port))
		if err != nil {
			return err
		}

		fmt.Println(id.String())
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Nebula " + nebula.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "Config.yaml", "config file")
	rootCmd.Flags().StringSliceVar(&envFiles, "env", nil, ".env files with NEBULA_* overrides (default .env)")

	rootCmd.AddCommand(nodeIDCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runNode(cmd *cobra.Command, args []string) {
	config, status, err := nebula.LoadConfig(configFile)
	if status != 3 {
		switch status {
		case 0:
			fmt.Printf("Unknown error accessing config file '%s': %s\n", configFile, err.Error())
			os.Exit(nebula.ExitErrorConfigAccess)
		case 1:
			fmt.Printf("Error reading config file '%s': %s\n", configFile, err.Error())
			os.Exit(nebula.ExitErrorConfigRead)
		default:
			fmt.Printf("Error parsing config file '%s' (make sure to use the YAML format): %s\n", configFile, err.Error())
			os.Exit(nebula.ExitErrorConfigParse)
		}
	}

	config.ApplyEnvironment(envFiles...)

	var apiKey uuid.UUID
	if config.WebAPIKey != "" {
		if apiKey, err = uuid.Parse(config.WebAPIKey); err != nil {
			fmt.Printf("Invalid web API key '%s': %s\n", config.WebAPIKey, err.Error())
			os.Exit(nebula.ExitParamApiKeyInvalid)
		}
	}

	backend, status, err := nebula.Init(config, nil)
	if status != nebula.ExitSuccess {
		fmt.Printf("Error %d initializing node: %s\n", status, err.Error())
		os.Exit(status)
	}

	api := webapi.Start(backend, config.WebListen, config.WebUseSSL, config.WebCertificateFile, config.WebCertificateKey, config.WebTimeoutRead, config.WebTimeoutWrite, apiKey)

	backend.Connect()

	fmt.Printf("Node %s listening on %s\n", backend.Self.ID.String(), backend.Network.GetListen())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	fmt.Println("Shutting down...")

	if api != nil {
		api.Shutdown()
	}
	backend.Terminate()

	os.Exit(nebula.ExitGraceful)
}
