package out

import (
	"context"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"time"

	"watchtrack/internal/modules/tracker/dto"
	trackerout "watchtrack/internal/modules/tracker/port/out"
	apperrors "watchtrack/internal/platform/errors"
)

const rpcService = "Tracker"

type JSONRPCServer struct{}

type JSONRPCClient struct {
	timeout time.Duration
}

func NewJSONRPCServer() trackerout.IPCServer {
	return &JSONRPCServer{}
}

func NewJSONRPCClient(timeout time.Duration) trackerout.IPCClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &JSONRPCClient{timeout: timeout}
}

type rpcHandler struct {
	h trackerout.IPCHandler
}

// Wire types must stay exported: net/rpc skips methods whose argument or
// reply type is unexported.
type StatusReply struct {
	Status dto.StatusOutput
}

type HistoryArgs struct {
	Limit int
}

type Empty struct{}

func (s *rpcHandler) Command(req dto.Command, _ *Empty) error {
	return s.h.Command(context.Background(), req)
}

func (s *rpcHandler) Status(_ Empty, resp *StatusReply) error {
	status, err := s.h.Status(context.Background())
	if err != nil {
		return err
	}
	resp.Status = status
	return nil
}

func (s *rpcHandler) History(req HistoryArgs, resp *dto.History) error {
	history, err := s.h.History(context.Background(), req.Limit)
	if err != nil {
		return err
	}
	*resp = history
	return nil
}

func (s *rpcHandler) Shutdown(_ Empty, _ *Empty) error {
	return s.h.Shutdown(context.Background())
}

func (s *JSONRPCServer) Serve(ctx context.Context, socketPath string, handler trackerout.IPCHandler) error {
	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName(rpcService, &rpcHandler{h: handler}); err != nil {
		return fmt.Errorf("register ipc handler: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create ipc dir: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale ipc socket: %w", err)
	}
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen ipc socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod ipc socket: %w", err)
	}
	defer ln.Close()

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
		go rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

func (c *JSONRPCClient) Command(ctx context.Context, socketPath string, cmd dto.Command) error {
	client, err := c.dial(ctx, socketPath)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Call(rpcService+".Command", cmd, &Empty{})
}

func (c *JSONRPCClient) Status(ctx context.Context, socketPath string) (dto.StatusOutput, error) {
	client, err := c.dial(ctx, socketPath)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	defer client.Close()
	resp := StatusReply{}
	if err := client.Call(rpcService+".Status", Empty{}, &resp); err != nil {
		return dto.StatusOutput{}, err
	}
	return resp.Status, nil
}

func (c *JSONRPCClient) History(ctx context.Context, socketPath string, limit int) (dto.History, error) {
	client, err := c.dial(ctx, socketPath)
	if err != nil {
		return dto.History{}, err
	}
	defer client.Close()
	resp := dto.History{}
	if err := client.Call(rpcService+".History", HistoryArgs{Limit: limit}, &resp); err != nil {
		return dto.History{}, err
	}
	return resp, nil
}

func (c *JSONRPCClient) Shutdown(ctx context.Context, socketPath string) error {
	client, err := c.dial(ctx, socketPath)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Call(rpcService+".Shutdown", Empty{}, &Empty{})
}

// dial reports ErrDaemonNotRunning when nothing listens on socketPath.
func (c *JSONRPCClient) dial(ctx context.Context, socketPath string) (*rpc.Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDaemonNotRunning, err)
	}
	_ = conn.SetDeadline(time.Now().Add(c.timeout))
	return rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn)), nil
}
