// Package logger expone un logger Zap singleton con scoping por contexto.
//
// Inicialización (una vez, en main):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "incidentauth"})
//	defer logger.Sync()
//
// En controllers y services:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("VerifyOtp"))
//	log.Info("otp verified", logger.UserID(u.ID))
//
// Nunca pasar OTPs, temp tokens, refresh tokens ni passwords a un campo de log.
package logger
