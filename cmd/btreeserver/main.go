// cmd/btreeserver/main.go
package main

import (
	"bufio"
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/harudb/btreecore/internal/auth"
	"github.com/harudb/btreecore/internal/btree"
	"github.com/harudb/btreecore/internal/command"
)

// Record is the demonstration object a connected client manipulates: an
// integer key plus a short textual rendering (spec.md §6).
type Record struct {
	Key   int64
	Label string
}

func newTree(minDegree int) *btree.Tree[Record, int64] {
	return btree.New[Record, int64](btree.Config[Record, int64]{
		MinDegree: minDegree,
		CompareObjects: func(a, b Record) int {
			switch {
			case a.Key < b.Key:
				return -1
			case a.Key > b.Key:
				return 1
			default:
				return 0
			}
		},
		CompareKeyObject: func(k int64, o Record) int {
			switch {
			case k < o.Key:
				return -1
			case k > o.Key:
				return 1
			default:
				return 0
			}
		},
		ExtractKey: func(o Record) int64 { return o.Key },
	})
}

// server bundles the single shared tree (guarded by mu, the external
// serialization spec.md §5 requires of any caller sharing a tree across
// goroutines) with the operator store gating access to it.
type server struct {
	mu        sync.Mutex
	tree      *btree.Tree[Record, int64]
	operators *auth.OperatorStore
}

func main() {
	port := flag.String("port", "54321", "port to listen on")
	dataDir := flag.String("data-dir", "./data", "directory for operator accounts and TLS material")
	enableTLS := flag.Bool("tls", false, "enable TLS with a self-signed certificate")
	degree := flag.Int("degree", 3, "minimum degree (t) of the tree")
	flag.Parse()

	if *degree < 2 {
		log.Fatalf("--degree must be >= 2, got %d", *degree)
	}
	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("failed to create data dir %s: %v", *dataDir, err)
	}

	srv := &server{
		tree:      newTree(*degree),
		operators: auth.NewOperatorStore(*dataDir),
	}

	var listener net.Listener
	var err error
	if *enableTLS {
		tlsManager, terr := auth.NewTLSManager(*dataDir)
		if terr != nil {
			log.Fatalf("tls setup failed: %v", terr)
		}
		tcpListener, lerr := net.Listen("tcp", ":"+*port)
		if lerr != nil {
			log.Fatalf("failed to listen on port %s: %v", *port, lerr)
		}
		listener = tls.NewListener(tcpListener, tlsManager.GetTLSConfig())
		fmt.Printf("btreeserver listening on port %s with TLS (t=%d)\n", *port, *degree)
	} else {
		listener, err = net.Listen("tcp", ":"+*port)
		if err != nil {
			log.Fatalf("failed to listen on port %s: %v", *port, err)
		}
		fmt.Printf("btreeserver listening on port %s (t=%d)\n", *port, *degree)
	}
	defer listener.Close()

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("accept error: %v", err)
			continue
		}
		go srv.handleConnection(conn)
	}
}

func (s *server) handleConnection(conn net.Conn) {
	defer conn.Close()

	fmt.Fprintln(conn, "Welcome to btreeserver")
	fmt.Fprintln(conn, "Authentication required. Default admin: admin / admin123")

	scanner := bufio.NewScanner(conn)
	var session *auth.Session

	for {
		fmt.Fprint(conn, "btree> \n")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, err := command.Parse(line)
		if err != nil {
			fmt.Fprintf(conn, "error: %v\n", err)
			continue
		}

		if cmd.Kind == command.Exit {
			fmt.Fprintln(conn, "goodbye")
			if session != nil {
				s.operators.EndSession(session.SessionID)
			}
			return
		}

		if cmd.Kind == command.Login {
			op, err := s.operators.Authenticate(cmd.User, cmd.Pass)
			if err != nil {
				fmt.Fprintf(conn, "login failed: %v\n", err)
				continue
			}
			session = s.operators.CreateSession(op)
			fmt.Fprintf(conn, "logged in as %s\n", op.Username)
			continue
		}

		if session == nil && cmd.Kind != command.Help {
			fmt.Fprintln(conn, "error: LOGIN required")
			continue
		}

		s.dispatch(conn, session, cmd)
		if cmd.Kind == command.Logout {
			session = nil
		}
	}
	if session != nil {
		s.operators.EndSession(session.SessionID)
	}
}

func (s *server) dispatch(conn net.Conn, session *auth.Session, cmd command.Command) {
	switch cmd.Kind {
	case command.Help:
		fmt.Fprintln(conn, "commands: INSERT <key> <label>, SEARCH <key>, REMOVE <key>, WALK,")
		fmt.Fprintln(conn, "          SEED <count>, ADDUSER <user> <pass> <role>, USERS, LOGOUT, EXIT")

	case command.Logout:
		s.operators.EndSession(session.SessionID)
		fmt.Fprintln(conn, "logged out")

	case command.ListUsers:
		if !session.Role.CanManageOperators() {
			fmt.Fprintln(conn, "error: USERS requires admin role")
			return
		}
		for _, op := range s.operators.ListOperators() {
			fmt.Fprintf(conn, "%s\t%d\t%s\n", op.Username, op.Role, op.CreatedAt.Format(time.RFC3339))
		}

	case command.AddUser:
		if !session.Role.CanManageOperators() {
			fmt.Fprintln(conn, "error: ADDUSER requires admin role")
			return
		}
		role, err := parseRole(cmd.Role)
		if err != nil {
			fmt.Fprintf(conn, "error: %v\n", err)
			return
		}
		if err := s.operators.CreateOperator(cmd.User, cmd.Pass, role); err != nil {
			fmt.Fprintf(conn, "error: %v\n", err)
			return
		}
		fmt.Fprintf(conn, "operator %s created\n", cmd.User)

	case command.Insert:
		if !session.Role.CanMutate() {
			fmt.Fprintln(conn, "error: INSERT requires operator or admin role")
			return
		}
		s.mu.Lock()
		ok := s.tree.Insert(Record{Key: cmd.Key, Label: cmd.Label})
		s.mu.Unlock()
		if ok {
			fmt.Fprintf(conn, "inserted %d\n", cmd.Key)
		} else {
			fmt.Fprintf(conn, "duplicate key %d\n", cmd.Key)
		}

	case command.Search:
		s.mu.Lock()
		rec, found := s.tree.Search(cmd.Key)
		s.mu.Unlock()
		if found {
			fmt.Fprintf(conn, "%d\t%s\n", rec.Key, rec.Label)
		} else {
			fmt.Fprintf(conn, "not found: %d\n", cmd.Key)
		}

	case command.Remove:
		if !session.Role.CanMutate() {
			fmt.Fprintln(conn, "error: REMOVE requires operator or admin role")
			return
		}
		s.mu.Lock()
		s.tree.Remove(cmd.Key)
		s.mu.Unlock()
		fmt.Fprintf(conn, "removed %d (if present)\n", cmd.Key)

	case command.Walk:
		s.mu.Lock()
		defer s.mu.Unlock()
		s.tree.Walk(func(r Record) {
			fmt.Fprintf(conn, "%d\t%s\n", r.Key, r.Label)
		})

	case command.Seed:
		if !session.Role.CanMutate() {
			fmt.Fprintln(conn, "error: SEED requires operator or admin role")
			return
		}
		s.mu.Lock()
		inserted := seed(s.tree, cmd.Count)
		s.mu.Unlock()
		fmt.Fprintf(conn, "seeded %d records\n", inserted)

	default:
		fmt.Fprintln(conn, "error: unsupported command")
	}
}

func parseRole(s string) (auth.Role, error) {
	switch s {
	case "admin":
		return auth.RoleAdmin, nil
	case "operator":
		return auth.RoleOperator, nil
	case "readonly":
		return auth.RoleReadOnly, nil
	default:
		return 0, fmt.Errorf("unknown role %q (want admin, operator, or readonly)", s)
	}
}

// seed reproduces the original C demo's retry-on-duplicate random
// insertion loop (original_source/demo/main.c): generate a random key,
// retry on collision, until count distinct records are inserted.
func seed(tr *btree.Tree[Record, int64], count int) int {
	inserted := 0
	for inserted < count {
		key := rand.Int64N(1_000_000_000)
		if tr.Insert(Record{Key: key, Label: fmt.Sprintf("seed-%d", key)}) {
			inserted++
		}
	}
	return inserted
}
