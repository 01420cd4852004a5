package main

import (
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/fjod/easycart/internal/payment"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var paymentPort string

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Run the simulated payment processor as a gRPC service",
	Long: `Runs an in-memory payment processor behind the easycart.payment.v1.PaymentService
gRPC boundary. It completes about 95% of charges and declines the rest with a random reason.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		log := newLogger(cfg)
		if paymentPort == "" {
			paymentPort = cfg.PaymentGRPCPort
		}

		lis, err := net.Listen("tcp", ":"+paymentPort)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}

		server := payment.NewGRPCServer(payment.NewSimulator(payment.RandomStatus{}, log))

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Info("payment service listening", "port", paymentPort)
			errCh <- server.Serve(lis)
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("payment server: %w", err)
			}
		case <-ctx.Done():
			log.Info("shutting down payment service")
			server.GracefulStop()
		}
		return nil
	},
}

func init() {
	paymentCmd.Flags().StringVar(&paymentPort, "port", "", "gRPC listen port (overrides PAYMENT_GRPC_PORT)")
	rootCmd.AddCommand(paymentCmd)
}
