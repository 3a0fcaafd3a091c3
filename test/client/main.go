package main

import (
	"bytes"
	"flag"
	"fmt"
	"net"
	"time"
)

const _feedAddr = "127.0.0.1:9000"

func main() {
	addr := flag.String("addr", _feedAddr, "price channel address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		panic(err)
	}
	defer conn.Close()
	fmt.Println("subscribed:", conn.RemoteAddr())

	buf := make([]byte, 4096)
	var pending []byte
	start := time.Now()
	frames := 0
	for {
		n, err := conn.Read(buf)
		if err != nil {
			fmt.Println("disconnected:", err, "frames:", frames, "cost:", time.Since(start))
			return
		}
		pending = append(pending, buf[:n]...)
		for {
			i := bytes.IndexByte(pending, '*')
			if i < 0 {
				break
			}
			frames++
			fmt.Println("recv:", string(pending[:i]))
			pending = pending[i+1:]
		}
	}
}
