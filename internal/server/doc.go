package server

// Usage:
//
//	mgr := server.NewManager(server.NewServerConfig(cfg), logger)
//	server.RegisterAll(mgr, cfg, services, logger)
//
//	// returns once the port is bound
//	if err := mgr.Start(ctx); err != nil { ... }
//
//	// post-bind work, e.g. the default admin bootstrap
//	services.Bootstrap.Run(ctx)
//
//	mgr.Shutdown(shutdownCtx)
//
// Every request passes through recovery, request logging, the CORS admission
// filter, the preflight fallback and the body size limit before any route group.
