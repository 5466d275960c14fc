// Package roles はロールごとの URL 接頭辞に同じハンドラ群を権限付きでマウントする。
package roles

import (
	"github.com/gin-gonic/gin"

	"KCMS-gateway/internal/platform/auth"
	"KCMS-gateway/internal/tool_mgmt/cabinets"
	"KCMS-gateway/internal/tool_mgmt/lendrecords"
	"KCMS-gateway/internal/tool_mgmt/returns"
)

type Role struct {
	Name    string
	Prefix  string
	Export  bool
	Mutate  bool
	OwnOnly bool // 一覧を本人分に固定（認証時のみ）
}

// Roles: 管理者 / 監査 / 作業者 / 班長
var Roles = []Role{
	{Name: auth.RoleAdmin, Prefix: "/api/v1", Export: true, Mutate: true},
	{Name: auth.RoleAuditor, Prefix: "/auditor_record", Export: true},
	{Name: auth.RoleOperator, Prefix: "/lend_record", Mutate: true, OwnOnly: true},
	{Name: auth.RoleTeamLeader, Prefix: "/teamleader", Export: true, Mutate: true},
}

type Deps struct {
	Records  *lendrecords.Service
	Returns  *returns.Service
	Cabinets cabinets.Source

	// nil なら認証なし（開発・モック用）
	AuthSecret []byte
	// 更新系のみに掛ける流量制限。nil 可
	Limiter gin.HandlerFunc
}

func Mount(r gin.IRouter, d Deps) {
	for _, role := range Roles {
		var mw []gin.HandlerFunc
		if len(d.AuthSecret) > 0 {
			mw = append(mw, auth.RequireAuth(d.AuthSecret), auth.RequireRole(role.Name))
		}
		g := r.Group(role.Prefix, mw...)

		var mutation []gin.HandlerFunc
		if d.Limiter != nil {
			mutation = append(mutation, d.Limiter)
		}

		lendrecords.RegisterRoutes(g, d.Records, lendrecords.Policy{
			AllowMutation:  role.Mutate,
			AllowExport:    role.Export,
			OwnRecordsOnly: role.OwnOnly,
			Mutation:       mutation,
		})
		if role.Mutate {
			returns.RegisterRoutes(g, d.Returns, mutation...)
		}
		cabinets.RegisterRoutes(g, d.Cabinets)
	}
}
