package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	commonhttp "github.com/sngm3741/chat-survey/api/internal/interfaces/http/common"
)

// authMiddleware は Authorization ヘッダーの JWT を検証し、クリエイター情報をコンテキストへ詰める。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			s.writeUnauthorized(w, "Authorization ヘッダーがありません")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			s.writeUnauthorized(w, "Bearer トークンを指定してください")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			s.writeUnauthorized(w, "アクセストークンが空です")
			return
		}

		claims, err := s.parseAuthToken(tokenString)
		if err != nil {
			s.writeUnauthorized(w, err.Error())
			return
		}

		ctx := commonhttp.ContextWithCreator(r.Context(), commonhttp.Creator{
			ID:    claims.Subject,
			Name:  claims.Name,
			Alias: claims.PreferredUsername,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) writeUnauthorized(w http.ResponseWriter, message string) {
	commonhttp.WriteJSON(s.logger, w, http.StatusUnauthorized, commonhttp.ErrorBody{Error: message, Code: "unauthorized"})
}

// parseAuthToken は HS256 署名と Issuer/Audience/Subject を検証する。
func (s *Server) parseAuthToken(tokenString string) (*authClaims, error) {
	if len(s.jwtConfig.Secret) == 0 {
		return nil, errors.New("認証設定が構成されていません")
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithLeeway(30 * time.Second),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if s.jwtConfig.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.jwtConfig.Issuer))
	}
	if s.jwtAudience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(s.jwtAudience))
	}

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.jwtConfig.Secret, nil
	}, parserOpts...)
	if err != nil || !token.Valid {
		return nil, errors.New("アクセストークンが無効です")
	}
	if claims.Subject == "" {
		return nil, errors.New("アクセストークンに subject がありません")
	}
	return claims, nil
}

type authClaims struct {
	jwt.RegisteredClaims
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}
