package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"google.golang.org/grpc/codes"

	"github.com/jathurchan/guestprop/hgcm"
	"github.com/jathurchan/guestprop/logger"
	"github.com/jathurchan/guestprop/property"
	"github.com/jathurchan/guestprop/types"
)

// initialBufferSize is the first out-buffer size tried; overflows retry once
// with the size the service reports.
const initialBufferSize = 256

var errQuit = errors.New("quit")

const consoleHelp = `commands:
  set NAME VALUE [FLAGS]       set a property as the host
  get NAME                     read a property
  del NAME                     delete a property as the host
  enum [PATTERN...]            list properties matching patterns
  dump                         print the debug listing
  flags FLAGS                  replace the global flags ("" clears)
  poweron | resume | reset     deliver a lifecycle event
  connect ID | disconnect ID   attach or detach a guest client
  clients                      list connected guest clients
  guest ID set NAME VALUE [FLAGS]
  guest ID get NAME
  guest ID del NAME
  guest ID enum [PATTERN...]
  guest ID wait SINCE [PATTERN...]
  help | quit
`

// console is a line-oriented host shell over a Dispatcher. Guest waits
// complete asynchronously and print when they finish.
type console struct {
	dispatcher hgcm.Dispatcher
	logger     logger.Logger

	mu  sync.Mutex // guards out
	out io.Writer

	waits sync.WaitGroup
}

func newConsole(d hgcm.Dispatcher, out io.Writer, log logger.Logger) *console {
	return &console{
		dispatcher: d,
		logger:     log.WithComponent("console"),
		out:        out,
	}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// Run executes commands read from in until EOF, "quit" or ctx is done.
// Command failures are printed and do not stop the loop.
func (c *console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			args, err := splitArgs(line)
			if err != nil {
				c.printf("error: %v\n", err)
				continue
			}
			if len(args) == 0 {
				continue
			}
			if err := c.execute(ctx, args); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				c.logger.Debugw("Console command failed", "command", args[0], "error", err)
				c.printf("error: %v\n", err)
			}
		}
	}
}

// drain blocks until every started wait has printed its result. Parked waits
// must be released first, by disconnecting their clients or closing the
// dispatcher.
func (c *console) drain() {
	c.waits.Wait()
}

func (c *console) execute(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "help":
		c.printf("%s", consoleHelp)
		return nil
	case "quit", "exit":
		return errQuit
	case "set":
		if len(rest) < 2 || len(rest) > 3 {
			return errors.New("usage: set NAME VALUE [FLAGS]")
		}
		flags := ""
		if len(rest) == 3 {
			flags = rest[2]
		}
		return c.dispatcher.HostCall(ctx, hgcm.HostSetProp,
			[]hgcm.Param{hgcm.StringParam(rest[0]), hgcm.StringParam(rest[1]), hgcm.StringParam(flags)})
	case "get":
		if len(rest) != 1 {
			return errors.New("usage: get NAME")
		}
		return c.hostGet(ctx, rest[0])
	case "del":
		if len(rest) != 1 {
			return errors.New("usage: del NAME")
		}
		return c.dispatcher.HostCall(ctx, hgcm.HostDelProp, []hgcm.Param{hgcm.StringParam(rest[0])})
	case "enum":
		return c.hostEnum(ctx, rest)
	case "dump":
		return c.hostDump(ctx)
	case "flags":
		if len(rest) != 1 {
			return errors.New("usage: flags FLAGS")
		}
		flags, err := property.ParseFlags(rest[0])
		if err != nil {
			return err
		}
		return c.dispatcher.HostCall(ctx, hgcm.HostSetGlobalFlags, []hgcm.Param{hgcm.Uint32Param(uint32(flags))})
	case "poweron":
		return c.dispatcher.Notify(ctx, hgcm.EventPowerOn)
	case "resume":
		return c.dispatcher.Notify(ctx, hgcm.EventResume)
	case "reset":
		return c.dispatcher.Notify(ctx, hgcm.EventReset)
	case "connect", "disconnect":
		if len(rest) != 1 {
			return fmt.Errorf("usage: %s ID", cmd)
		}
		id, err := parseClientID(rest[0])
		if err != nil {
			return err
		}
		if cmd == "disconnect" {
			c.dispatcher.Disconnect(id)
			return nil
		}
		return c.dispatcher.Connect(id)
	case "clients":
		c.printClients()
		return nil
	case "guest":
		if len(rest) < 2 {
			return errors.New("usage: guest ID COMMAND ...")
		}
		id, err := parseClientID(rest[0])
		if err != nil {
			return err
		}
		return c.guest(ctx, id, rest[1], rest[2:])
	}
	return fmt.Errorf("unknown command %q (try help)", cmd)
}

// withRetry runs call with initialBufferSize and, on overflow, once more
// with the reported size.
func withRetry(call func(size int) error) error {
	err := call(initialBufferSize)
	if required, ok := property.RequiredSize(err); ok {
		return call(required)
	}
	return err
}

func (c *console) hostGet(ctx context.Context, name string) error {
	var params []hgcm.Param
	err := withRetry(func(size int) error {
		params = []hgcm.Param{hgcm.StringParam(name), hgcm.OutBufferParam(size), hgcm.Uint64Param(0), hgcm.Uint32Param(0)}
		return c.dispatcher.HostCall(ctx, hgcm.HostGetProp, params)
	})
	if err != nil {
		return err
	}
	ts, _ := params[2].Uint64()
	c.printValue(name, resultBytes(params[1], params[3]), ts)
	return nil
}

func (c *console) hostEnum(ctx context.Context, patterns []string) error {
	var params []hgcm.Param
	err := withRetry(func(size int) error {
		params = []hgcm.Param{patternParam(patterns), hgcm.OutBufferParam(size), hgcm.Uint32Param(0)}
		return c.dispatcher.HostCall(ctx, hgcm.HostEnumProps, params)
	})
	if err != nil {
		return err
	}
	return c.printEnumeration(resultBytes(params[1], params[2]))
}

func (c *console) hostDump(ctx context.Context) error {
	var params []hgcm.Param
	err := withRetry(func(size int) error {
		params = []hgcm.Param{hgcm.OutBufferParam(size), hgcm.Uint32Param(0)}
		return c.dispatcher.HostCall(ctx, hgcm.HostGetDebugInfo, params)
	})
	if err != nil {
		return err
	}
	c.printf("%s", resultBytes(params[0], params[1]))
	return nil
}

func (c *console) guest(ctx context.Context, id types.ClientID, cmd string, args []string) error {
	switch cmd {
	case "set":
		if len(args) < 2 || len(args) > 3 {
			return errors.New("usage: guest ID set NAME VALUE [FLAGS]")
		}
		params := []hgcm.Param{hgcm.StringParam(args[0]), hgcm.StringParam(args[1])}
		fn := hgcm.GuestSetPropValue
		if len(args) == 3 {
			params = append(params, hgcm.StringParam(args[2]))
			fn = hgcm.GuestSetProp
		}
		_, err := c.guestCall(ctx, id, fn, params)
		return err
	case "get":
		if len(args) != 1 {
			return errors.New("usage: guest ID get NAME")
		}
		var params []hgcm.Param
		err := withRetry(func(size int) error {
			var err error
			params, err = c.guestCall(ctx, id, hgcm.GuestGetProp,
				[]hgcm.Param{hgcm.StringParam(args[0]), hgcm.OutBufferParam(size), hgcm.Uint64Param(0), hgcm.Uint32Param(0)})
			return err
		})
		if err != nil {
			return err
		}
		ts, _ := params[2].Uint64()
		c.printValue(args[0], resultBytes(params[1], params[3]), ts)
		return nil
	case "del":
		if len(args) != 1 {
			return errors.New("usage: guest ID del NAME")
		}
		_, err := c.guestCall(ctx, id, hgcm.GuestDelProp, []hgcm.Param{hgcm.StringParam(args[0])})
		return err
	case "enum":
		var params []hgcm.Param
		err := withRetry(func(size int) error {
			var err error
			params, err = c.guestCall(ctx, id, hgcm.GuestEnumProps,
				[]hgcm.Param{patternParam(args), hgcm.OutBufferParam(size), hgcm.Uint32Param(0)})
			return err
		})
		if err != nil {
			return err
		}
		return c.printEnumeration(resultBytes(params[1], params[2]))
	case "wait":
		if len(args) < 1 {
			return errors.New("usage: guest ID wait SINCE [PATTERN...]")
		}
		since, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", args[0], err)
		}
		c.startWait(ctx, id, since, args[1:])
		return nil
	}
	return fmt.Errorf("unknown guest command %q", cmd)
}

// guestCall issues a call and blocks until it completes.
func (c *console) guestCall(ctx context.Context, id types.ClientID, fn hgcm.GuestFunction, params []hgcm.Param) ([]hgcm.Param, error) {
	call := hgcm.NewLocalCall(id, fn, params...)
	c.dispatcher.GuestCall(ctx, call)
	select {
	case <-call.Done():
	case <-ctx.Done():
		call.Cancel()
		return nil, ctx.Err()
	}
	return call.Params(), hgcm.ToError(call.Status())
}

// startWait parks a notification wait and prints its result when it
// completes.
func (c *console) startWait(ctx context.Context, id types.ClientID, since uint64, patterns []string) {
	call := hgcm.NewLocalCall(id, hgcm.GuestGetNotification,
		patternParam(patterns), hgcm.Uint64Param(since), hgcm.OutBufferParam(initialBufferSize), hgcm.Uint32Param(0))
	c.dispatcher.GuestCall(ctx, call)

	c.waits.Add(1)
	go func() {
		defer c.waits.Done()
		select {
		case <-call.Done():
		case <-ctx.Done():
			call.Cancel()
			return
		}
		c.printNotification(id, call)
	}()
}

func (c *console) printNotification(id types.ClientID, call *hgcm.LocalCall) {
	st := call.Status()
	params := call.Params()
	if st.Code() != codes.OK {
		c.printf("[guest %d] wait failed: %v\n", id, hgcm.ToError(st))
		return
	}
	ts, _ := params[1].Uint64()
	fields := splitFields(resultBytes(params[2], params[3]))
	if len(fields) < 4 {
		c.printf("[guest %d] malformed notification\n", id)
		return
	}
	event := "changed"
	if fields[3] == "1" {
		event = "deleted"
	}
	c.printf("[guest %d] %s %s=%s flags=%s ts=%d\n", id, event, fields[0], fields[1], fields[2], ts)
	if st.Message() != "" {
		c.printf("[guest %d] %s\n", id, st.Message())
	}
}

func (c *console) printValue(name string, data []byte, ts uint64) {
	fields := splitFields(data)
	value, flags := "", ""
	if len(fields) > 0 {
		value = fields[0]
	}
	if len(fields) > 1 {
		flags = fields[1]
	}
	c.printf("%s=%s flags=%s ts=%d\n", name, value, flags, ts)
}

func (c *console) printEnumeration(data []byte) error {
	props, err := property.DecodeEnumeration(data)
	if err != nil {
		return err
	}
	for _, p := range props {
		c.printf("%s=%s flags=%s ts=%d\n", p.Name, p.Value, p.Flags, p.Timestamp)
	}
	return nil
}

func (c *console) printClients() {
	for id, info := range c.dispatcher.Clients().AllClientInfo() {
		c.printf("client %d connected=%s calls=%d\n", id, info.ConnectedAt.Format("15:04:05"), info.CallCount)
	}
}

func parseClientID(s string) (types.ClientID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid client id %q", s)
	}
	return types.ClientID(v), nil
}

// patternParam builds the NUL separated pattern list of the call ABI.
func patternParam(patterns []string) hgcm.Param {
	var b bytes.Buffer
	for _, p := range patterns {
		b.WriteString(p)
		b.WriteByte(0)
	}
	if b.Len() == 0 {
		b.WriteByte(0)
	}
	return hgcm.BufferParam(b.Bytes())
}

func resultBytes(buf, size hgcm.Param) []byte {
	raw, _ := buf.Buffer()
	n, _ := size.Uint32()
	if int(n) > len(raw) {
		return raw
	}
	return raw[:n]
}

func splitFields(data []byte) []string {
	return strings.Split(strings.TrimSuffix(string(data), "\x00"), "\x00")
}

// splitArgs splits a command line on blanks. Double-quoted arguments may
// contain blanks and Go escape sequences; "" is an empty argument.
func splitArgs(line string) ([]string, error) {
	var args []string
	rest := strings.TrimSpace(line)
	for rest != "" {
		if rest[0] == '"' {
			quoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return nil, fmt.Errorf("unterminated quote in %q", rest)
			}
			arg, _ := strconv.Unquote(quoted)
			args = append(args, arg)
			rest = strings.TrimLeft(rest[len(quoted):], " \t")
			continue
		}
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			end = len(rest)
		}
		args = append(args, rest[:end])
		rest = strings.TrimLeft(rest[end:], " \t")
	}
	return args, nil
}
