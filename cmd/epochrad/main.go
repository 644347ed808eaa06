package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/epochra/epochra/pkg/config"
	"github.com/epochra/epochra/pkg/core/apply"
	"github.com/epochra/epochra/pkg/core/blockdb"
	"github.com/epochra/epochra/pkg/core/corectx"
	"github.com/epochra/epochra/pkg/core/hashing"
	"github.com/epochra/epochra/pkg/core/headerverify"
	"github.com/epochra/epochra/pkg/core/types"
	"github.com/epochra/epochra/pkg/core/walog"
	"github.com/epochra/epochra/pkg/slotting"
	"github.com/epochra/epochra/pkg/ssc"
	"github.com/epochra/epochra/pkg/txp"
	"github.com/epochra/epochra/pkg/wallet"
)

func main() {
	nodeCmd := flag.NewFlagSet("node", flag.ExitOnError)
	walletCmd := flag.NewFlagSet("wallet", flag.ExitOnError)
	balanceCmd := flag.NewFlagSet("balance", flag.ExitOnError)

	nodeDataDir := nodeCmd.String("data", "data", "Directory for the block store and intent log")
	nodeMetricsAddr := nodeCmd.String("metrics-addr", ":9100", "Address to serve Prometheus metrics on")

	walletAction := walletCmd.String("action", "new", "Action: new")
	walletFile := walletCmd.String("file", "wallet.dat", "File to save/load key")

	balanceAddr := balanceCmd.String("addr", "", "Address to look up (hex)")
	balanceDataDir := balanceCmd.String("data", "data", "Directory for the block store")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "node":
		nodeCmd.Parse(os.Args[2:])
		startNode(*nodeDataDir, *nodeMetricsAddr)
	case "wallet":
		walletCmd.Parse(os.Args[2:])
		handleWallet(*walletAction, *walletFile)
	case "balance":
		balanceCmd.Parse(os.Args[2:])
		if *balanceAddr == "" {
			fmt.Println("Error: --addr is required")
			os.Exit(1)
		}
		handleBalance(*balanceDataDir, *balanceAddr)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  epochrad node [--data dir] [--metrics-addr addr]")
	fmt.Println("  epochrad wallet --action new --file <wallet.dat>")
	fmt.Println("  epochrad balance --addr <hex> [--data dir]")
}

// startNode opens the block store, seeds genesis if the store is empty,
// builds the core's collaborators and CoreCtx, replays any pending
// write-ahead intent, and blocks serving Prometheus metrics.
func startNode(dataDir, metricsAddr string) {
	log.Printf("Starting Epochra node (testnet)...")

	crypto := hashing.SHA256Crypto{}

	db, err := blockdb.NewBadgerStore(dataDir, crypto)
	if err != nil {
		log.Fatalf("failed to open block store: %v", err)
	}
	defer db.Close()

	params := config.TestnetParams
	if err := ensureGenesis(db, crypto, params); err != nil {
		log.Fatalf("failed to initialize genesis: %v", err)
	}

	ctx, err := corectx.New(
		params,
		db,
		slotting.New(params),
		txp.NewLedger(),
		ssc.NewLedger(),
		crypto,
		headerverify.New(crypto),
		walog.Open(dataDir+"/intent.log"),
	)
	if err != nil {
		log.Fatalf("failed to build core context: %v", err)
	}

	if err := apply.Recover(ctx); err != nil {
		log.Fatalf("failed to recover from write-ahead log: %v", err)
	}

	tip, err := db.Tip()
	if err != nil {
		log.Fatalf("failed to read tip: %v", err)
	}
	log.Printf("tip at %s", tip)

	http.Handle("/metrics", promhttp.Handler())
	log.Printf("serving metrics on %s", metricsAddr)
	log.Fatal(http.ListenAndServe(metricsAddr, nil))
}

// ensureGenesis seeds the store with the genesis block if it has never been
// initialized. Block production beyond genesis is out of scope (non-goal);
// a node only ever receives further blocks from a caller outside this
// package (a gossip layer, a test harness) that already holds the tip
// semaphore's first take.
func ensureGenesis(db blockdb.BlockDB, crypto hashing.Crypto, params config.Params) error {
	_, err := db.Tip()
	if err == nil {
		return nil
	}
	if err != blockdb.ErrTipNotSet {
		return err
	}

	genesis := &types.Block{
		Header: types.BlockHeader{
			Kind:       types.GenesisHeaderKind,
			Epoch:      0,
			Slot:       types.SlotId{Epoch: 0, Slot: 0},
			PrevHash:   types.ZeroHash,
			Difficulty: 0,
		},
	}
	h := crypto.Hash(genesis.Header)

	if err := db.PutBlock(types.Undo{}, true, genesis); err != nil {
		return err
	}
	if err := db.SetBlockInMainChain(h, true); err != nil {
		return err
	}
	return db.SetTip(h)
}

func handleWallet(action, file string) {
	switch action {
	case "new":
		pub, priv, err := wallet.GenerateKeyPair()
		if err != nil {
			log.Fatalf("failed to generate key pair: %v", err)
		}
		if err := wallet.SaveKey(file, priv); err != nil {
			log.Fatalf("failed to save key: %v", err)
		}
		addr := wallet.PubKeyToAddress(pub)
		fmt.Printf("new wallet saved to %s\naddress: %s\n", file, addr)
	default:
		fmt.Printf("unknown wallet action: %s\n", action)
		os.Exit(1)
	}
}

func handleBalance(dataDir, addrHex string) {
	addr, err := types.HashFromHex(addrHex)
	if err != nil {
		log.Fatalf("invalid address: %v", err)
	}

	crypto := hashing.SHA256Crypto{}
	db, err := blockdb.NewBadgerStore(dataDir, crypto)
	if err != nil {
		log.Fatalf("failed to open block store: %v", err)
	}
	defer db.Close()

	// The ledger is in-memory and rebuilt from genesis on every run; a real
	// deployment would persist Txp state itself (spec.md §1 non-goal: no
	// wallet/explorer service is in scope here; this is a diagnostic command
	// only).
	ledger := txp.NewLedger()
	tip, err := db.Tip()
	if err != nil {
		log.Fatalf("failed to read tip: %v", err)
	}
	headers, err := db.LoadHeadersUntil(tip, func(types.BlockHeader, uint32) bool { return false })
	if err != nil {
		log.Fatalf("failed to load main chain: %v", err)
	}
	for i := len(headers) - 1; i >= 0; i-- {
		block, err := db.GetBlock(crypto.Hash(headers[i]))
		if err != nil {
			log.Fatalf("failed to load block: %v", err)
		}
		ledger.ApplyBlocks([]*types.Block{block})
	}
	balance, nonce := ledger.Balance(addr)
	fmt.Printf("address %s: balance=%d nonce=%d\n", addr.Hex(), balance, nonce)
}
