// gatewaysim answers outbound gateway requests on NATS so the tracker
// can be exercised without the real uplink provider. Pass a device id
// as argument to simulate a third-party owned incident for it.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/nats-io/nats.go"
)

type reply struct {
	Status      string `json:"status"`
	ErrorReason string `json:"errorReason,omitempty"`
}

func main() {
	thirdPartyOwned := ""
	if len(os.Args) > 1 {
		thirdPartyOwned = os.Args[1]
	}

	nc, err := nats.Connect(nats.DefaultURL)
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Close()

	if _, err := nc.Subscribe("garminecc.gateway.v1.target.*.*", func(m *nats.Msg) {
		parts := strings.Split(m.Subject, ".")
		deviceID, op := parts[4], parts[5]
		fmt.Printf("subject: %s, message: %s\n", m.Subject, string(m.Data))

		rep := reply{Status: "SUCCESS"}
		if op == "ack" && deviceID == thirdPartyOwned {
			rep = reply{Status: "ERROR", ErrorReason: "ERR_NOT_AUTHORITATIVE"}
		}

		data, _ := json.Marshal(rep)
		nc.Publish(m.Reply, data)
	}); err != nil {
		log.Fatal(err)
	}

	quitCh := make(chan os.Signal, 1)
	signal.Notify(quitCh, os.Interrupt)
	<-quitCh
}
