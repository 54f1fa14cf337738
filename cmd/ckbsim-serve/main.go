// Command ckbsim-serve publishes a directory of compiled native
// contract .so files over FTP so test runners on other hosts can fetch
// them with ckbsim-fetch, grounded on the teacher's own FTP server
// setup (src/protonuke/ftp.go's ftpServer) but backed by the published
// goftp/file-driver instead of the teacher's own hand-rolled
// path-backed driver (src/protonuke/ftpdriver.go) - the same job, from
// the upstream package instead of a local copy of it.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	filedriver "github.com/goftp/file-driver"
	"github.com/goftp/server"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/simlog"
)

const banner = "ckbsim-serve: FTP server for compiled native contracts."

var (
	f_root = flag.String("root", ".", "directory of compiled .so contracts to serve")
	f_port = flag.Int("port", 2121, "FTP listen port")
	f_user = flag.String("user", "ckbsim", "FTP username")
	f_pass = flag.String("pass", "ckbsim", "FTP password")
)

func usage() {
	fmt.Println(banner)
	fmt.Println("usage: ckbsim-serve [option]...")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	simlog.AddLogger("stdio", os.Stderr, simlog.Info, false)

	ip, err := localIPv4()
	if err != nil {
		simlog.Fatalf("ckbsim-serve: %v", err)
	}

	perm := server.NewSimplePerm(*f_user, *f_user)
	factory := filedriver.NewFileDriverFactory(*f_root, perm)

	opt := &server.ServerOpts{
		Factory:  factory,
		Auth:     &staticAuth{user: *f_user, pass: *f_pass},
		Name:     "ckbsim-serve",
		PublicIp: ip.String(),
		Port:     *f_port,
	}

	srv := server.NewServer(opt)
	simlog.Infof("serving %s over FTP on %s:%d", *f_root, ip, *f_port)
	if err := srv.ListenAndServe(); err != nil {
		simlog.Fatalf("ckbsim-serve: %v", err)
	}
}

type staticAuth struct {
	user, pass string
}

func (a *staticAuth) CheckPasswd(user, pass string) (bool, error) {
	return user == a.user && pass == a.pass, nil
}

func localIPv4() (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, i := range ifaces {
		addrs, err := i.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.IsLoopback() {
				continue
			}
			if ip := ipnet.IP.To4(); ip != nil {
				return ip, nil
			}
		}
	}
	return nil, fmt.Errorf("no non-loopback IPv4 address found")
}
