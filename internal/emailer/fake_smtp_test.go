package emailer_test

import (
	"io"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
)

type smtpSession struct {
	auth     string
	mailFrom string
	rcptTo   []string
	data     string
}

// fakeSMTPServer speaks just enough ESMTP for net/smtp: EHLO with AUTH
// PLAIN, MAIL, RCPT, DATA and QUIT.
type fakeSMTPServer struct {
	ln         net.Listener
	rejectAuth bool
	sessions   chan smtpSession
	wg         sync.WaitGroup
}

func newFakeSMTPServer(t *testing.T, rejectAuth bool) *fakeSMTPServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := &fakeSMTPServer{
		ln:         ln,
		rejectAuth: rejectAuth,
		sessions:   make(chan smtpSession, 16),
	}

	s.wg.Add(1)
	go s.serve()

	t.Cleanup(func() {
		_ = ln.Close()
		s.wg.Wait()
	})
	return s
}

func (s *fakeSMTPServer) hostPort() (string, string) {
	host, port, _ := net.SplitHostPort(s.ln.Addr().String())
	return host, port
}

func (s *fakeSMTPServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *fakeSMTPServer) handle(conn net.Conn) {
	defer conn.Close()

	tp := textproto.NewConn(conn)
	var sess smtpSession
	defer func() { s.sessions <- sess }()

	reply := func(line string) bool {
		return tp.PrintfLine("%s", line) == nil
	}

	if !reply("220 fake.local ESMTP ready") {
		return
	}

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])

		switch verb {
		case "EHLO", "HELO":
			_ = tp.PrintfLine("250-fake.local")
			_ = tp.PrintfLine("250-AUTH PLAIN")
			reply("250 8BITMIME")
		case "AUTH":
			sess.auth = line
			if s.rejectAuth {
				reply("535 5.7.8 Authentication credentials invalid")
				continue
			}
			reply("235 2.7.0 Authentication successful")
		case "MAIL":
			sess.mailFrom = line
			reply("250 2.1.0 OK")
		case "RCPT":
			sess.rcptTo = append(sess.rcptTo, line)
			reply("250 2.1.5 OK")
		case "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			data, err := io.ReadAll(tp.DotReader())
			if err != nil {
				return
			}
			sess.data = string(data)
			reply("250 2.0.0 queued")
		case "QUIT":
			reply("221 2.0.0 bye")
			return
		default:
			reply("502 5.5.2 command not recognized")
		}
	}
}
