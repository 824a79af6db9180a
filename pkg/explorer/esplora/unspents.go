package esplora

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/spellex-network/spellex-daemon/pkg/explorer"
	"github.com/spellex-network/spellex-daemon/pkg/transactionutil"
)

// maxConcurrentAddressScans bounds the number of in-flight utxo scans when
// fetching for many addresses at once. The shared rate limiter still paces
// the individual requests.
const maxConcurrentAddressScans = 4

func (e *esplora) GetUnspents(addr string) ([]explorer.Utxo, error) {
	return e.getUnspents(addr)
}

func (e *esplora) GetUnspentsForAddresses(
	addresses []string,
) ([]explorer.Utxo, error) {
	var g errgroup.Group
	g.SetLimit(maxConcurrentAddressScans)

	unspentsByAddress := make([][]explorer.Utxo, len(addresses))
	for i, addr := range addresses {
		i, addr := i, addr
		g.Go(func() error {
			unspents, err := e.getUnspents(addr)
			if err != nil {
				return err
			}
			unspentsByAddress[i] = unspents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	unspents := make([]explorer.Utxo, 0)
	for _, list := range unspentsByAddress {
		unspents = append(unspents, list...)
	}
	return unspents, nil
}

func (e *esplora) getUnspents(addr string) ([]explorer.Utxo, error) {
	url := fmt.Sprintf("%s/address/%s/utxo", e.apiURL, addr)
	resp, err := e.getRequest(url)
	if err != nil {
		return nil, fmt.Errorf("error on retrieving utxos: %v", err)
	}

	utxoList, err := parseUtxoList(resp)
	if err != nil {
		return nil, fmt.Errorf("error on retrieving utxos: %v", err)
	}

	unspents := make([]explorer.Utxo, 0, len(utxoList))
	for _, out := range utxoList {
		unspent := explorer.NewWitnessUtxo(
			out.Txid, out.Vout, out.Value, nil,
			out.Status.Confirmed,
			out.Status.BlockHeight, out.Status.BlockTime,
		)
		if err := e.populateScript(unspent); err != nil {
			return nil, err
		}
		unspents = append(unspents, unspent)
	}

	return unspents, nil
}

// populateScript resolves the output script of the utxo by fetching its
// funding transaction: the utxo listing endpoint does not include scripts,
// while spending the coin later requires them.
func (e *esplora) populateScript(unspent explorer.Utxo) error {
	txHex, err := e.getTransactionHex(unspent.Hash())
	if err != nil {
		return err
	}
	tx, err := transactionutil.NewTxFromHex(txHex)
	if err != nil {
		return err
	}
	out, err := transactionutil.GetOutput(tx, unspent.Index())
	if err != nil {
		return err
	}
	unspent.SetScript(out.PkScript)
	return nil
}
