// Command courierctl is the BookCourier storefront and dashboard on the
// command line. It signs in against the identity provider, keeps the
// session in a YAML file and talks to the REST backend.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "courierctl",
	Short:         "BookCourier storefront and dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetLevel(logrus.WarnLevel)
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and state changes")

	// Session
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(menuCmd)

	// Catalog
	rootCmd.AddCommand(booksCmd)
	rootCmd.AddCommand(reviewsCmd)
	rootCmd.AddCommand(wishlistCmd)
	rootCmd.AddCommand(uploadImageCmd)

	// Orders and dashboard
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(paymentsCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(usersCmd)
}
