// Package process supervises the long-running controller.
//
// The controller and its MQTT session are torn down and rebuilt from
// scratch when they fail fatally (connect failure, loss of the event
// queue). The supervisor owns that loop:
//
//	sup := process.NewSupervisor(process.Config{
//	    Name:         "controller",
//	    RestartDelay: 5 * time.Second,
//	}, logger)
//
//	err := sup.Run(ctx, func(ctx context.Context) error {
//	    return buildAndRunController(ctx)
//	})
package process
