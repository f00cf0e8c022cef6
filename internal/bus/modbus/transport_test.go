// internal/bus/modbus/transport_test.go
package modbus

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/tamzrod/meter-poller/internal/bus"
)

// ---- minimal Modbus TCP server ----

// serveOnce answers FC 3 requests on one connection.
// Registers hold their own address; address 0xDEAD answers exception 2.
func serveOnce(t *testing.T, ln net.Listener) {
	t.Helper()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			req := make([]byte, 12)
			if _, err := io.ReadFull(conn, req); err != nil {
				return
			}

			tid := binary.BigEndian.Uint16(req[0:2])
			unit := req[6]
			fc := req[7]
			addr := binary.BigEndian.Uint16(req[8:10])
			qty := binary.BigEndian.Uint16(req[10:12])

			var pdu []byte
			if addr == 0xDEAD {
				pdu = []byte{fc | 0x80, 0x02}
			} else {
				pdu = append(pdu, fc, byte(qty*2))
				for i := uint16(0); i < qty; i++ {
					var w [2]byte
					binary.BigEndian.PutUint16(w[:], addr+i)
					pdu = append(pdu, w[:]...)
				}
			}

			resp := make([]byte, 7, 7+len(pdu))
			binary.BigEndian.PutUint16(resp[0:2], tid)
			binary.BigEndian.PutUint16(resp[2:4], 0)
			binary.BigEndian.PutUint16(resp[4:6], uint16(1+len(pdu)))
			resp[6] = unit
			resp = append(resp, pdu...)

			if _, err := conn.Write(resp); err != nil {
				return
			}
		}
	}()
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	return ln
}

// ---- tests ----

func TestTransport_ReadHoldingRegisters(t *testing.T) {
	ln := listen(t)
	serveOnce(t, ln)

	tr, err := NewTCP(TCPConfig{Endpoint: ln.Addr().String(), Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}
	defer tr.Close()

	if err := tr.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !tr.IsOpen() {
		t.Fatalf("expected open transport")
	}

	words, err := tr.ReadHoldingRegisters(2, 0x5B02, 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(words) != 2 || words[0] != 0x5B02 || words[1] != 0x5B03 {
		t.Fatalf("unexpected words: %v", words)
	}
}

func TestTransport_ExceptionIsDeviceError(t *testing.T) {
	ln := listen(t)
	serveOnce(t, ln)

	tr, err := NewTCP(TCPConfig{Endpoint: ln.Addr().String(), Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}
	defer tr.Close()

	if err := tr.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	_, err = tr.ReadHoldingRegisters(7, 0xDEAD, 1)

	var devErr *bus.DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected DeviceError, got %v", err)
	}
	if devErr.UnitID != 7 || devErr.Function != 3 || devErr.Exception != 2 {
		t.Fatalf("unexpected device error: %+v", devErr)
	}
}

func TestTransport_ConnectRefused(t *testing.T) {
	ln := listen(t)
	addr := ln.Addr().String()
	_ = ln.Close()

	tr, err := NewTCP(TCPConfig{Endpoint: addr, Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}

	if err := tr.Connect(); err == nil {
		t.Fatalf("expected connect error")
	}
	if tr.IsOpen() {
		t.Fatalf("transport must not report open after failed connect")
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("close after failed connect: %v", err)
	}
}

func TestNewRTU_Validation(t *testing.T) {
	if _, err := NewRTU(RTUConfig{}); err == nil {
		t.Fatalf("expected error for empty device")
	}
	if _, err := NewRTU(RTUConfig{Device: "/dev/ttyUSB0", Parity: "X"}); err == nil {
		t.Fatalf("expected error for bad parity")
	}
	if _, err := NewRTU(RTUConfig{Device: "/dev/ttyUSB0", Parity: "N", BaudRate: 9600, DataBits: 8, StopBits: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnpackRegisters(t *testing.T) {
	got := unpackRegisters([]byte{0x00, 0x00, 0x08, 0x98})
	if len(got) != 2 || got[0] != 0 || got[1] != 2200 {
		t.Fatalf("unexpected registers: %v", got)
	}
}
