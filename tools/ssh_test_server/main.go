// Command ssh_test_server runs the in-process test SSH server on a fixed
// local port so citrus-ssh can be tried by hand:
//
//	go run ./tools/ssh_test_server --password secret
//	citrus-ssh send -H 127.0.0.1 -p 20222 -u tester --password secret -- echo hello
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/NalediMadlopha/citrus/internal/sshtest"
)

func main() {
	addr := pflag.String("addr", "127.0.0.1:20222", "listen address")
	user := pflag.String("user", "tester", "user accepted with --password")
	password := pflag.String("password", "", "password for --user; empty accepts any client")
	pflag.Parse()

	var opts []sshtest.Option
	if *password != "" {
		opts = append(opts, sshtest.WithPassword(*user, *password))
	}
	srv, err := sshtest.Start(*addr, opts...)
	if err != nil {
		logrus.WithError(err).Fatal("failed to start test ssh server")
	}
	defer func() { _ = srv.Close() }()
	logrus.WithFields(logrus.Fields{"addr": srv.Addr(), "host_key": srv.KnownHostsLine()}).Info("test ssh server listening")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
