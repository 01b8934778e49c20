// Command agentd is a minimal example binary built on package agent, in
// the vein of the teacher's cmd/server.go (a hand-wired Router + handler
// functions), rebuilt against this module's Server/Handler contract
// instead of the teacher's message/server Router.
package main

import (
	"fmt"
	"log"

	"github.com/curol/agentnet/agent"
	"github.com/curol/agentnet/httpwire"
)

func main() {
	config := agent.DefaultConfig()
	config.ListenAddress.Port = 8080

	zapLog, err := agent.NewZapLog(agent.ZapLogConfig{})
	if err != nil {
		log.Fatal(err)
	}
	config.Log = zapLog

	srv := agent.NewServer(config, agent.HandlerFunc(respond), nil, nil)
	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("listening on", srv.ListenAddress())
	select {}
}

// respond dispatches by method and path, mirroring the teacher's
// cmd/server.go pingHandler/getHandler/postHandler trio.
func respond(resp *httpwire.Response, req *httpwire.Request, status httpwire.Status) {
	if status != httpwire.StatusOK {
		resp.Status = status
		return
	}

	path := req.Uri.Path.Encoded()
	switch {
	case req.Method == "GET" && path == "/ping":
		resp.Body.Write([]byte("PONG"))
	case req.Method == "GET" && path == "/":
		resp.Body.Write([]byte("GET"))
	case req.Method == "POST" && path == "/":
		if err := httpwire.ParsePost(req); err != nil {
			resp.Status = httpwire.StatusBadRequest
			return
		}
		v, _ := req.PostParams.Get("key")
		resp.Body.Write([]byte("POST key=" + v))
	default:
		resp.Status = httpwire.StatusNotFound
		resp.Body.Write([]byte("404 Not Found"))
	}
}
