package main

import (
	"fmt"

	"github.com/spf13/cobra"

	gnet "github.com/INSANE0777/AIS-GARDEN/internal/net"
	"github.com/INSANE0777/AIS-GARDEN/internal/paths"
	"github.com/INSANE0777/AIS-GARDEN/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the garden server",
	Long: `Run the authoritative garden: the HTTP API, the live channel and the
database behind them. The server is announced on the local network over mDNS
unless server.disable_advertise is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := interruptible(cmd)
		defer stop()

		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		dir, err := paths.ResolveDataDir(dataDir)
		if err != nil {
			return err
		}
		st, err := store.Open(ctx, cfg.Database, dir, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		if !cfg.Server.DisableAdvertise {
			mdnsServer, err := gnet.Advertise(cfg.Server.Port)
			if err != nil {
				logger.Warn().Err(err).Msg("mDNS announcement failed; clients need --server")
			} else {
				defer mdnsServer.Shutdown()
				logger.Info().Str("service", gnet.ServiceType).Msg("announced on the local network")
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Garden is open. Others can join with:\n  %s join --server %s\n",
			paths.AppName, gnet.ShareURL(cfg.Server.Port))

		return gnet.NewServer(cfg.Server, st, version, logger).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default: server.port)")
}
