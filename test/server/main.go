package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net"
)

const _sinkAddr = "127.0.0.1:9002"

func main() {
	l, err := net.Listen("tcp", _sinkAddr)
	if err != nil {
		log.Fatal(err)
	}
	defer l.Close()
	fmt.Println("listening:", l.Addr())
	for {
		conn, err := l.Accept()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("connected:", conn.RemoteAddr())
		go func(c net.Conn) {
			defer c.Close()
			buf := make([]byte, 4096)
			var pending []byte
			for {
				n, err := c.Read(buf)
				if err != nil {
					if err != io.EOF {
						fmt.Println("read:", err)
					}
					return
				}
				pending = append(pending, buf[:n]...)
				for {
					i := bytes.IndexByte(pending, '*')
					if i < 0 {
						break
					}
					fmt.Println("order:", string(pending[:i]))
					pending = pending[i+1:]
				}
			}
		}(conn)
	}
}
