package main

import (
	"context"
	"time"

	"github.com/radityaferdi/otpgate/internal/app"
)

func main() {
	application := app.New()

	// Block until a termination signal, then give in-flight requests and
	// consumers ten seconds to drain.
	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx)
}
