/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	zlog "github.com/hyperledger/aries-didcomm-go/pkg/common/log"
	"github.com/hyperledger/aries-didcomm-go/pkg/controller"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret/localsecret"
	"github.com/hyperledger/aries-didcomm-go/pkg/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/vdr/httpbinding"
	"github.com/hyperledger/aries-didcomm-go/pkg/vdr/key"
	"github.com/hyperledger/aries-didcomm-go/pkg/vdr/memvdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/vdr/web"
)

const (
	envPrefix = "DIDCOMM_AGENT_"

	// api host flag.
	agentHostFlagName      = "api-host"
	agentHostEnvKey        = envPrefix + "API_HOST"
	agentHostFlagShorthand = "a"
	agentHostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: " + agentHostEnvKey

	// api token flag.
	agentTokenFlagName      = "api-token"
	agentTokenEnvKey        = envPrefix + "API_TOKEN" // nolint:gosec
	agentTokenFlagShorthand = "t"
	agentTokenFlagUsage     = "Check for bearer token in the authorization header (optional)." +
		" Alternatively, this can be set with the following environment variable: " + agentTokenEnvKey

	// config file flag.
	agentConfigFileFlagName      = "config-file"
	agentConfigFileEnvKey        = envPrefix + "CONFIG_FILE"
	agentConfigFileFlagShorthand = "f"
	agentConfigFileFlagUsage     = "YAML or JSON file listing the DID documents and secrets of this agent." +
		" Alternatively, this can be set with the following environment variable: " + agentConfigFileEnvKey

	agentConfigTimeoutFlagName  = "config-timeout"
	agentConfigTimeoutEnvKey    = envPrefix + "CONFIG_TIMEOUT"
	agentConfigTimeoutFlagUsage = "Total time in seconds to wait until the config file is available." +
		" Default: " + agentConfigTimeoutDefault + " seconds." +
		" Alternatively, this can be set with the following environment variable: " + agentConfigTimeoutEnvKey
	agentConfigTimeoutDefault = "0"

	// log level.
	agentLogLevelFlagName  = "log-level"
	agentLogLevelEnvKey    = envPrefix + "LOG_LEVEL"
	agentLogLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentLogLevelEnvKey

	// log format.
	agentLogFormatFlagName  = "log-format"
	agentLogFormatEnvKey    = envPrefix + "LOG_FORMAT"
	agentLogFormatFlagUsage = "Log format." +
		" Possible values [json] [console]. Defaults to json if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentLogFormatEnvKey

	// http resolver url flag.
	agentHTTPResolverFlagName      = "http-resolver-url"
	agentHTTPResolverEnvKey        = envPrefix + "HTTP_RESOLVER"
	agentHTTPResolverFlagShorthand = "r"
	agentHTTPResolverFlagUsage     = "HTTP binding DID resolver method and url. Values should be in `method@url` format." +
		" This flag can be repeated, allowing multiple http resolvers." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " +
		agentHTTPResolverEnvKey

	// resolver cache flags.
	agentResolverCacheSizeFlagName  = "resolver-cache-size"
	agentResolverCacheSizeEnvKey    = envPrefix + "RESOLVER_CACHE_SIZE"
	agentResolverCacheSizeFlagUsage = "Number of resolved DID documents to cache. Caching is off if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentResolverCacheSizeEnvKey

	agentResolverCacheTTLFlagName  = "resolver-cache-ttl"
	agentResolverCacheTTLEnvKey    = envPrefix + "RESOLVER_CACHE_TTL"
	agentResolverCacheTTLFlagUsage = "How long a cached DID document stays valid, e.g. 5m. Defaults to no expiry." +
		" Alternatively, this can be set with the following environment variable: " + agentResolverCacheTTLEnvKey

	// unpack depth flag.
	agentMaxUnpackDepthFlagName  = "max-unpack-depth"
	agentMaxUnpackDepthEnvKey    = envPrefix + "MAX_UNPACK_DEPTH"
	agentMaxUnpackDepthFlagUsage = "Maximum number of envelope layers peeled when unpacking." +
		" Alternatively, this can be set with the following environment variable: " + agentMaxUnpackDepthEnvKey

	agentTLSCertFileFlagName      = "tls-cert-file"
	agentTLSCertFileEnvKey        = envPrefix + "TLS_CERT_FILE"
	agentTLSCertFileFlagShorthand = "c"
	agentTLSCertFileFlagUsage     = "tls certificate file." +
		" Alternatively, this can be set with the following environment variable: " + agentTLSCertFileEnvKey

	agentTLSKeyFileFlagName      = "tls-key-file"
	agentTLSKeyFileEnvKey        = envPrefix + "TLS_KEY_FILE"
	agentTLSKeyFileFlagShorthand = "k"
	agentTLSKeyFileFlagUsage     = "tls key file." +
		" Alternatively, this can be set with the following environment variable: " + agentTLSKeyFileEnvKey

	logFormatJSON    = "json"
	logFormatConsole = "console"
)

var (
	errMissingHost = errors.New("host not provided")
	logger         = log.New("aries-framework/didcomm-agent-rest")
)

type agentParameters struct {
	server                  server
	host, token             string
	tlsCertFile, tlsKeyFile string
	logFormat               string
	configFile              string
	configTimeout           uint64
	httpResolvers           []string
	cacheSize               int
	cacheTTL                time.Duration
	maxUnpackDepth          int
}

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router) //nolint:gosec
}

// agentContext provides the resolvers the controller operations pack and unpack with.
type agentContext struct {
	registry *vdr.Registry
	secrets  *localsecret.Store
}

func (c *agentContext) VDRegistry() vdrapi.Resolver {
	return c.registry
}

func (c *agentContext) SecretResolver() secret.Resolver {
	return c.secrets
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	startCmd := createStartCMD(server)

	createFlags(startCmd)

	return startCmd, nil
}

func createStartCMD(server server) *cobra.Command { //nolint:funlen
	return &cobra.Command{
		Use:   "start",
		Short: "Start an agent",
		Long:  `Start a DIDComm agent serving the pack and unpack controller API`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logFormat, err := getUserSetVar(cmd, agentLogFormatFlagName, agentLogFormatEnvKey, true)
			if err != nil {
				return err
			}

			logLevel, err := getUserSetVar(cmd, agentLogLevelFlagName, agentLogLevelEnvKey, true)
			if err != nil {
				return err
			}

			err = initLogger(logFormat, logLevel)
			if err != nil {
				return err
			}

			host, err := getUserSetVar(cmd, agentHostFlagName, agentHostEnvKey, false)
			if err != nil {
				return err
			}

			token, err := getUserSetVar(cmd, agentTokenFlagName, agentTokenEnvKey, true)
			if err != nil {
				return err
			}

			configFile, err := getUserSetVar(cmd, agentConfigFileFlagName, agentConfigFileEnvKey, true)
			if err != nil {
				return err
			}

			configTimeout, err := getUintVar(cmd, agentConfigTimeoutFlagName, agentConfigTimeoutEnvKey,
				agentConfigTimeoutDefault)
			if err != nil {
				return err
			}

			httpResolvers, err := getUserSetVars(cmd, agentHTTPResolverFlagName, agentHTTPResolverEnvKey, true)
			if err != nil {
				return err
			}

			cacheSize, err := getUintVar(cmd, agentResolverCacheSizeFlagName, agentResolverCacheSizeEnvKey, "0")
			if err != nil {
				return err
			}

			cacheTTL, err := getDurationVar(cmd, agentResolverCacheTTLFlagName, agentResolverCacheTTLEnvKey)
			if err != nil {
				return err
			}

			maxUnpackDepth, err := getUintVar(cmd, agentMaxUnpackDepthFlagName, agentMaxUnpackDepthEnvKey, "0")
			if err != nil {
				return err
			}

			tlsCertFile, err := getUserSetVar(cmd, agentTLSCertFileFlagName, agentTLSCertFileEnvKey, true)
			if err != nil {
				return err
			}

			tlsKeyFile, err := getUserSetVar(cmd, agentTLSKeyFileFlagName, agentTLSKeyFileEnvKey, true)
			if err != nil {
				return err
			}

			parameters := &agentParameters{
				server:         server,
				host:           host,
				token:          token,
				logFormat:      logFormat,
				configFile:     configFile,
				configTimeout:  configTimeout,
				httpResolvers:  httpResolvers,
				cacheSize:      int(cacheSize),
				cacheTTL:       cacheTTL,
				maxUnpackDepth: int(maxUnpackDepth),
				tlsCertFile:    tlsCertFile,
				tlsKeyFile:     tlsKeyFile,
			}

			return startAgent(parameters)
		},
	}
}

func createFlags(startCmd *cobra.Command) {
	// agent host flag
	startCmd.Flags().StringP(agentHostFlagName, agentHostFlagShorthand, "", agentHostFlagUsage)

	// agent token flag
	startCmd.Flags().StringP(agentTokenFlagName, agentTokenFlagShorthand, "", agentTokenFlagUsage)

	// config file flags
	startCmd.Flags().StringP(agentConfigFileFlagName, agentConfigFileFlagShorthand, "", agentConfigFileFlagUsage)
	startCmd.Flags().StringP(agentConfigTimeoutFlagName, "", "", agentConfigTimeoutFlagUsage)

	// log flags
	startCmd.Flags().StringP(agentLogLevelFlagName, "", "", agentLogLevelFlagUsage)
	startCmd.Flags().StringP(agentLogFormatFlagName, "", "", agentLogFormatFlagUsage)

	// http resolver url flag
	startCmd.Flags().StringSliceP(agentHTTPResolverFlagName, agentHTTPResolverFlagShorthand, []string{},
		agentHTTPResolverFlagUsage)

	// resolver cache flags
	startCmd.Flags().StringP(agentResolverCacheSizeFlagName, "", "", agentResolverCacheSizeFlagUsage)
	startCmd.Flags().StringP(agentResolverCacheTTLFlagName, "", "", agentResolverCacheTTLFlagUsage)

	// max unpack depth
	startCmd.Flags().StringP(agentMaxUnpackDepthFlagName, "", "", agentMaxUnpackDepthFlagUsage)

	// tls cert file
	startCmd.Flags().StringP(agentTLSCertFileFlagName,
		agentTLSCertFileFlagShorthand, "", agentTLSCertFileFlagUsage)

	// tls key file
	startCmd.Flags().StringP(agentTLSKeyFileFlagName,
		agentTLSKeyFileFlagShorthand, "", agentTLSKeyFileFlagUsage)
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetVars(cmd *cobra.Command, flagName, envKey string, isOptional bool) ([]string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetStringSlice(flagName)
		if err != nil {
			return nil, fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	var values []string

	if isSet {
		values = strings.Split(value, ",")
	}

	if isOptional || isSet {
		return values, nil
	}

	return nil, fmt.Errorf(" %s not set. "+
		"It must be set via either command line or environment variable", flagName)
}

func getUintVar(cmd *cobra.Command, flagName, envKey, defaultValue string) (uint64, error) {
	v, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil {
		return 0, err
	}

	if v == "" {
		v = defaultValue
	}

	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse %s %s", flagName, v)
	}

	return n, nil
}

func getDurationVar(cmd *cobra.Command, flagName, envKey string) (time.Duration, error) {
	v, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil || v == "" {
		return 0, err
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse %s %s", flagName, v)
	}

	return d, nil
}

func getResolverOpts(httpResolvers []string) ([]vdr.Option, error) {
	var opts []vdr.Option

	const numPartsResolverOption = 2

	for _, httpResolver := range httpResolvers {
		r := strings.Split(httpResolver, "@")
		if len(r) != numPartsResolverOption {
			return nil, errors.New("invalid http resolver options found")
		}

		method := r[0]

		httpVDR, err := httpbinding.New(r[1],
			httpbinding.WithAccept(func(m string) bool { return m == method }))
		if err != nil {
			return nil, errors.Wrap(err, "failed to setup http resolver")
		}

		opts = append(opts, vdr.WithVDR(httpVDR))
	}

	return opts, nil
}

func initLogger(format, level string) error {
	switch format {
	case "", logFormatJSON:
		log.Initialize(zlog.NewProvider(os.Stderr, zlog.WithTimestamp()))
	case logFormatConsole:
		log.Initialize(zlog.NewProvider(os.Stderr, zlog.WithConsole(), zlog.WithTimestamp()))
	default:
		return fmt.Errorf("log format [%s] not supported", format)
	}

	return setLogLevel(level)
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}

func validateAuthorizationBearerToken(w http.ResponseWriter, r *http.Request, token string) bool {
	actHdr := r.Header.Get("Authorization")
	expHdr := "Bearer " + token

	if subtle.ConstantTimeCompare([]byte(actHdr), []byte(expHdr)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthorised.\n")) // nolint:gosec,errcheck

		return false
	}

	return true
}

func authorizationMiddleware(token string) mux.MiddlewareFunc {
	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validateAuthorizationBearerToken(w, r, token) {
				next.ServeHTTP(w, r)
			}
		})
	}

	return middleware
}

func startAgent(parameters *agentParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	handler, err := createHandler(parameters)
	if err != nil {
		return errors.Wrapf(err, "failed to start didcomm agent rest on port [%s]", parameters.host)
	}

	logger.Infof("Starting didcomm agent rest on host [%s]", parameters.host)

	err = parameters.server.ListenAndServe(parameters.host, handler, parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return errors.Wrapf(err, "didcomm agent rest on port [%s] exited", parameters.host)
	}

	return nil
}

// createHandler builds the router serving every controller REST handler behind CORS and, with a token set,
// bearer authorization.
func createHandler(parameters *agentParameters) (http.Handler, error) {
	ctx, err := createAgentContext(parameters)
	if err != nil {
		return nil, err
	}

	var opts []controller.Opt
	if parameters.maxUnpackDepth > 0 {
		opts = append(opts, controller.WithMaxUnpackDepth(parameters.maxUnpackDepth))
	}

	handlers, err := controller.GetRESTHandlers(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rest service api")
	}

	router := mux.NewRouter()

	if parameters.token != "" {
		router.Use(authorizationMiddleware(parameters.token))
	}

	for _, handler := range handlers {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	return cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router), nil
}

func createAgentContext(parameters *agentParameters) (*agentContext, error) {
	cfg, err := loadConfig(parameters.configFile, parameters.configTimeout)
	if err != nil {
		return nil, err
	}

	local, err := memvdr.New(cfg.docs...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load DID documents")
	}

	resolverOpts, err := getResolverOpts(parameters.httpResolvers)
	if err != nil {
		return nil, err
	}

	opts := []vdr.Option{vdr.WithVDR(local)}
	opts = append(opts, resolverOpts...)
	opts = append(opts, vdr.WithVDR(key.New()), vdr.WithVDR(web.New()))

	if parameters.cacheSize > 0 {
		opts = append(opts, vdr.WithCache(parameters.cacheSize, parameters.cacheTTL))
	}

	logger.Debugf("loaded %d DID documents and %d secrets", len(cfg.docs), len(cfg.secrets))

	return &agentContext{
		registry: vdr.New(opts...),
		secrets:  localsecret.New(cfg.secrets...),
	}, nil
}
