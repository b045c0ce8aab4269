// cmd/seedcajero/main.go: Crea/actualiza un cajero en el espejo local del dispositivo,
// para poder iniciar sesión sin conexión antes del primer login en línea.
// Uso: go run ./cmd/seedcajero -id 7 -nombre ana -password 1234 -sucursal 1
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/config"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/infra"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/repository"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/service"
)

func main() {
	id := flag.Int64("id", 0, "id del cajero en el servidor")
	nombre := flag.String("nombre", "", "nombre de usuario")
	password := flag.String("password", "", "contraseña")
	sucursal := flag.Int64("sucursal", 1, "sucursal del cajero")
	rol := flag.String("rol", "cajero", "cajero | supervisor | administrador")
	flag.Parse()
	if *id <= 0 || *nombre == "" || *password == "" {
		log.Fatal("id, nombre y password son obligatorios")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var kv repository.KV
	switch cfg.StoreDriver {
	case "redis":
		rdb, err := infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connect error: %v", err)
		}
		defer rdb.Close()
		kv = repository.NewRedisKV(rdb, "caja:")
	case "sqlite", "postgres":
		db, err := infra.NewDatabase(cfg.StoreDriver, cfg.StoreDSN)
		if err != nil {
			log.Fatalf("db connect error: %v", err)
		}
		if kv, err = repository.NewGormKV(db); err != nil {
			log.Fatalf("migrate error: %v", err)
		}
	default:
		log.Fatalf("STORE_DRIVER %q no es persistente", cfg.StoreDriver)
	}

	verif, err := service.NewVerificador(cfg.PasswordHashAlgo)
	if err != nil {
		log.Fatalf("hash algo error: %v", err)
	}
	hash, err := verif.Hash(*password)
	if err != nil {
		log.Fatalf("hash error: %v", err)
	}

	var adminHash string
	if cfg.SeedAdminPassword != "" {
		if adminHash, err = verif.Hash(cfg.SeedAdminPassword); err != nil {
			log.Fatalf("hash error: %v", err)
		}
	}
	local := repository.NewLocalStore(kv, repository.DefaultSeed(adminHash))
	err = local.MergeCajeros(context.Background(), []model.Cajero{{
		ID: *id, Nombre: *nombre, PasswordHash: hash, SucursalID: *sucursal,
		Rol: model.ParseRol(*rol), Activo: true,
	}})
	if err != nil {
		log.Fatalf("save error: %v", err)
	}
	fmt.Printf("✅ Cajero '%s' creado/actualizado en el espejo local (sucursal %d)\n", *nombre, *sucursal)
}
